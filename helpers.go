package larafront

// Compact returns the named entries of values that are present, like
// Laravel's compact. Missing names are skipped.
//
//	data := larafront.Compact(resp.Fields(), "success", "data")
func Compact(values map[string]any, names ...string) map[string]any {
	out := make(map[string]any, len(names))
	for _, name := range names {
		if v, ok := values[name]; ok {
			out[name] = v
		}
	}
	return out
}

// Merge returns a new map with the entries of each map in order, later
// maps winning.
func Merge(maps ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
