package pwsfile

import "github.com/wesleyyan-sb/pwsafe/internal/pwsrecord"

// Iterator walks db's records one at a time, unsealing each only when
// Next is called rather than decrypting the whole list up front. The
// decrypted record it holds is transient: it is replaced (and the old
// one dropped) on every Next, and dropped for good on exhaustion or
// Close.
type Iterator struct {
	db         *DB
	generation uint64
	idx        int
	cur        *pwsrecord.Record
	curIdx     int
	err        error
	done       bool
}

// Next unseals the next record and reports whether one was available.
// It returns false at the end of the list, after a DB.Dispose, or once
// a concurrent Add/Update/Remove has invalidated the iterator — check
// Err to tell exhaustion apart from a failure.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	if it.db.state == StateDisposed {
		it.err = ErrDisposed
		it.done = true
		return false
	}
	if it.generation != it.db.generation {
		it.err = ErrConcurrentIteration
		it.done = true
		it.cur = nil
		return false
	}
	if it.idx >= len(it.db.sealed) {
		it.done = true
		it.cur = nil
		return false
	}

	rec, err := unsealRecord(it.db.cg, it.db.sealed[it.idx])
	if err != nil {
		it.err = err
		it.done = true
		return false
	}
	it.cur = rec
	it.curIdx = it.idx
	it.idx++
	return true
}

// Record returns the record produced by the most recent Next.
func (it *Iterator) Record() *pwsrecord.Record { return it.cur }

// Index returns the index of the record produced by the most recent
// Next.
func (it *Iterator) Index() int { return it.curIdx }

// Err returns the error that stopped iteration, if any. A clean
// exhaustion reports nil.
func (it *Iterator) Err() error { return it.err }

// Close releases the iterator; it is safe to call more than once and
// after exhaustion. Calling Next after Close always returns false.
func (it *Iterator) Close() {
	it.done = true
	it.cur = nil
}
