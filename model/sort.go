package model

type TablesByKeyRangeSlice []*SstableInfo

func (s TablesByKeyRangeSlice) Len() int {
	return len(s)
}

func (s TablesByKeyRangeSlice) Swap(i int, j int) {
	s[i], s[j] = s[j], s[i]
}

func (s TablesByKeyRangeSlice) Less(i int, j int) bool {
	return s[i].KeyRange.Compare(s[j].KeyRange) < 0
}

type TablesByIdSlice []*SstableInfo

func (s TablesByIdSlice) Len() int {
	return len(s)
}

func (s TablesByIdSlice) Swap(i int, j int) {
	s[i], s[j] = s[j], s[i]
}

func (s TablesByIdSlice) Less(i int, j int) bool {
	return s[i].Id < s[j].Id
}
