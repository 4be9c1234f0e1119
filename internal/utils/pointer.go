package utils

// Ptr returns a pointer to a copy of v.
//
//	cfg := ai.GenerationConfig{Seed: utils.Ptr(42)}
func Ptr[T any](v T) *T {
	return &v
}
