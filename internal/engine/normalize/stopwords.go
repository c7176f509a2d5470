package normalize

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		// en
		"a", "an", "the", "of", "from", "by", "for", "to", "in", "on", "at", "and", "or",
		"me", "my", "i", "is", "are", "was", "with", "without", "show", "give", "list",
		"get", "what", "which", "how", "many", "much", "all", "any", "some", "please",
		"those", "these", "that", "this", "ones", "one", "it", "them", "only", "just",
		// pt
		"o", "os", "as", "um", "uma", "de", "da", "do", "das", "dos", "em", "na", "no",
		"nas", "nos", "e", "ou", "para", "pra", "por", "com", "sem", "que", "qual",
		"quais", "quanto", "quantos", "me", "mostre", "mostra", "mostrar", "liste",
		"traga", "esses", "essas", "estes", "estas", "isso", "isto", "aquele", "aqueles",
		"todos", "todas", "so", "apenas",
	} {
		stopwords[w] = struct{}{}
	}
}

// IsStopword reports whether a normalized token carries no entity or intent signal.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}
