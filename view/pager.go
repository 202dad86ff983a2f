package view

// Pager describes one page of a server paginated listing.
type Pager struct {
	Total  int
	Limit  int
	Offset int
}

func (p Pager) HasPrev() bool {
	return p.Offset > 0
}

func (p Pager) HasNext() bool {
	return p.Offset+p.Limit < p.Total
}

func (p Pager) PrevOffset() int {
	return max(p.Offset-p.Limit, 0)
}

func (p Pager) NextOffset() int {
	return p.Offset + p.Limit
}

// Page is the 1 based page number.
func (p Pager) Page() int {
	if p.Limit <= 0 {
		return 1
	}
	return p.Offset/p.Limit + 1
}

func (p Pager) Pages() int {
	if p.Limit <= 0 || p.Total == 0 {
		return 1
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

// From and To are the 1 based range of items shown, for "21-40 of 95".
func (p Pager) From() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset + 1
}

func (p Pager) To() int {
	return min(p.Offset+p.Limit, p.Total)
}
