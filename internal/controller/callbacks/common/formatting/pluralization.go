package formatting

import "fmt"

// Plural во французском единственное число для 0 и 1
func Plural(count int, singular, plural string) string {
	if count <= 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

// Sessions "1 séance", "3 séances"
func Sessions(count int) string {
	return Plural(count, "séance", "séances")
}

// Students "1 élève", "4 élèves"
func Students(count int) string {
	return Plural(count, "élève", "élèves")
}

// Questions "1 question", "5 questions"
func Questions(count int) string {
	return Plural(count, "question", "questions")
}
