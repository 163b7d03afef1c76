package aggregates

// Contract records what an aggregate owns. Every write to a table listed in
// Tables goes through that aggregate inside a transaction it opens itself;
// reporting and other readers use table repos directly.
type Contract struct {
	Name   string
	Tables []string
	Notes  string
}

// Aggregate is the common marker for all aggregate contracts.
type Aggregate interface {
	Contract() Contract
}

// Owns reports whether table is written by the aggregate.
func (c Contract) Owns(table string) bool {
	for _, t := range c.Tables {
		if t == table {
			return true
		}
	}
	return false
}

// Contracts lists the contract of every aggregate.
func Contracts() []Contract {
	return []Contract{
		TaxonomyAggregateContract,
		MappingAggregateContract,
		MarkingAggregateContract,
		FilterAggregateContract,
	}
}

// OwnerOf returns the contract owning table.
func OwnerOf(table string) (Contract, bool) {
	for _, c := range Contracts() {
		if c.Owns(table) {
			return c, true
		}
	}
	return Contract{}, false
}
