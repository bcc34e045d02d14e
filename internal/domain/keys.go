package domain

// KeyPrefix namespaces every key skillrank writes to Valkey/Redis.
const KeyPrefix = "skillrank:"
