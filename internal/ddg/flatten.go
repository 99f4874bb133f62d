package ddg

// Flatten returns every leaf under topic in depth-first, left-to-right order.
func Flatten(topic Topic) []TopicResult {
	if !topic.IsGroup() {
		return []TopicResult{topic.Leaf}
	}
	out := make([]TopicResult, 0, len(topic.Topics))
	for _, child := range topic.Topics {
		out = append(out, Flatten(child)...)
	}
	return out
}
