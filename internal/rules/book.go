package rules

// Book pairs the working table with the rules file it is persisted to.
type Book struct {
	Table *Table
	Path  string
}

// Rules returns the table in evaluation order.
func (b *Book) Rules() []Rule { return b.Table.Rules() }

// Add prepends a rule to the table and saves it to the rules file.
func (b *Book) Add(pattern, label string) error {
	return Add(b.Table, b.Path, pattern, label)
}

// Shadowed reports the indexes of unreachable rules.
func (b *Book) Shadowed() []int { return b.Table.Shadowed() }
