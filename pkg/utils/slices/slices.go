package slices

// Map applies f to each element of sl and collects the results.
func Map[T, U any](sl []T, f func(T) U) []U {
	mapped := make([]U, len(sl))
	for i, v := range sl {
		mapped[i] = f(v)
	}
	return mapped
}
