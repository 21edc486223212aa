package transform

// AppendSource returns body followed by a comment line naming the URL it was
// fetched from. The input slice is never modified.
func AppendSource(body []byte, url string) []byte {
	trailer := "\n; Source: " + url + "\n"
	out := make([]byte, 0, len(body)+len(trailer))
	out = append(out, body...)
	return append(out, trailer...)
}

