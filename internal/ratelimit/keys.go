package ratelimit

// ratelimit:contact:{identifier}
func contactKey(identifier string) string {
	return "ratelimit:contact:" + identifier
}
