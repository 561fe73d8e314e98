package schema

// Parse extracts the declared tables and their foreign-key parents from DDL
// text. It never fails: text without any CREATE TABLE yields an empty schema.
//
// A REFERENCES clause belongs to the most recent CREATE TABLE above it.
// References that appear before the first table are dropped, and a table
// declared twice keeps its first position and accumulates both blocks.
func Parse(text string) *Schema {
	s := newSchema()

	current := ""
	for _, ev := range Lex(text) {
		switch ev.Kind {
		case EventTableStart:
			current = ev.Name
			s.addTable(current)
		case EventReference:
			if current == "" {
				continue
			}
			s.addDependency(current, ev.Name)
		}
	}

	return s
}
