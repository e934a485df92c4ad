package scheduler

type idSet map[string]struct{}

func newIDSet(ids []string) idSet {
	s := make(idSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s idSet) add(id string) {
	s[id] = struct{}{}
}

func (s idSet) has(id string) bool {
	_, ok := s[id]
	return ok
}

// disjoint 判断两个集合是否没有交集
func (s idSet) disjoint(other idSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for id := range small {
		if large.has(id) {
			return false
		}
	}
	return true
}

// uniqueIDs 去除重复的 ID，保留第一次出现的顺序
func uniqueIDs(ids []string) []string {
	seen := make(idSet, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen.has(id) {
			continue
		}
		seen.add(id)
		result = append(result, id)
	}
	return result
}

// forEachPair 对 ids 中每一对不同位置的元素调用 fn
func forEachPair(ids []string, fn func(id1 string, id2 string) error) error {
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if err := fn(ids[i], ids[j]); err != nil {
				return err
			}
		}
	}
	return nil
}

// maxBy 返回 items 中最大的元素，若有多个最大值则返回最先出现的那个
// items 不能为空
func maxBy[T any](items []T, less func(a, b T) bool) T {
	best := items[0]
	for _, item := range items[1:] {
		if less(best, item) {
			best = item
		}
	}
	return best
}

func lessFitness(a, b *Schedule) bool {
	return a.fitness < b.fitness
}
