package domain

// KeyPrefix namespaces every key meterd writes to a shared Redis.
const KeyPrefix = "meterd:"
