package publisher

// ShardFor maps a partition key onto one of n shards with FNV-1a.
func ShardFor(key string, n int) int {
	if n <= 1 {
		return 0
	}
	return int(hashKey(key) % uint32(n))
}

func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
