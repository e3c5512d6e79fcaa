package core

type DBOrdering struct {
	Field     string
	Ascending bool
}

// Direction is the sort direction as understood by MongoDB: 1 ascending, -1 descending.
func (ord DBOrdering) Direction() int {
	if ord.Ascending {
		return 1
	}
	return -1
}

func (ord DBOrdering) String() string {
	if ord.Ascending {
		return ord.Field
	}
	return "-" + ord.Field
}
