package population

import "sort"

// #region branch

// Branch is one isolated population under comparison (baseline or
// challenger). Branches never share User instances. Removal is terminal:
// a churned uid never re-enters the alive set.
type Branch struct {
	Name string

	users   map[int]*User
	alive   map[int]struct{}
	churned map[int]struct{}

	// LastActions maps uid → last batch index the baseline acted on it.
	LastActions map[int]int

	energy []float64
	arr    []float64
	churn  []float64
}

// NewBranch returns an empty branch.
func NewBranch(name string) *Branch {
	return &Branch{
		Name:        name,
		users:       make(map[int]*User),
		alive:       make(map[int]struct{}),
		churned:     make(map[int]struct{}),
		LastActions: make(map[int]int),
	}
}

// AddUser registers a user as alive.
func (b *Branch) AddUser(u *User) {
	b.users[u.UID] = u
	b.alive[u.UID] = struct{}{}
}

// User returns the record for a uid.
func (b *Branch) User(uid int) *User {
	return b.users[uid]
}

// Remove marks a user as churned. The record is retained with its state
// frozen at removal time.
func (b *Branch) Remove(uid int) {
	delete(b.alive, uid)
	b.churned[uid] = struct{}{}
}

// IsAlive reports whether a uid is in the alive set.
func (b *Branch) IsAlive(uid int) bool {
	_, ok := b.alive[uid]
	return ok
}

// AliveUIDs returns the alive set in ascending uid order. The batch loop
// iterates this order so runs are reproducible under one seed.
func (b *Branch) AliveUIDs() []int {
	return sortedKeys(b.alive)
}

// ChurnedUIDs returns the churned set in ascending uid order.
func (b *Branch) ChurnedUIDs() []int {
	return sortedKeys(b.churned)
}

// AliveCount returns the size of the alive set.
func (b *Branch) AliveCount() int {
	return len(b.alive)
}

// Size returns the total number of users ever admitted.
func (b *Branch) Size() int {
	return len(b.users)
}

// MaxUID returns the highest uid admitted, or -1 for an empty branch.
func (b *Branch) MaxUID() int {
	max := -1
	for uid := range b.users {
		if uid > max {
			max = uid
		}
	}
	return max
}

// UsersSnapshot returns every user record (alive and churned) in uid order.
func (b *Branch) UsersSnapshot() []*User {
	uids := make([]int, 0, len(b.users))
	for uid := range b.users {
		uids = append(uids, uid)
	}
	sort.Ints(uids)
	out := make([]*User, 0, len(uids))
	for _, uid := range uids {
		out = append(out, b.users[uid])
	}
	return out
}

// #endregion branch

// #region metrics

// RecordBatch appends one batch's scalar metrics to the branch series.
func (b *Branch) RecordBatch(energy, arr, churnRatio float64) {
	b.energy = append(b.energy, energy)
	b.arr = append(b.arr, arr)
	b.churn = append(b.churn, churnRatio)
}

// Series returns copies of the per-batch energy, ARR, and churn series.
func (b *Branch) Series() (energy, arr, churn []float64) {
	return copyFloats(b.energy), copyFloats(b.arr), copyFloats(b.churn)
}

// #endregion metrics

// #region helpers

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for uid := range set {
		out = append(out, uid)
	}
	sort.Ints(out)
	return out
}

func copyFloats(in []float64) []float64 {
	out := make([]float64, len(in))
	copy(out, in)
	return out
}

// #endregion helpers
