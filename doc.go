// Package biglist provides a list of numeric elements whose length is bounded
// by the int64 range rather than by the largest single allocation.
//
// Elements live in a two-level segmented store: index i is found in segment
// i >> bits at offset i & (1<<bits - 1). Every mutation that crosses a
// segment boundary (inserting, removing, bulk compaction) is expressed as a
// block move over (segment, offset) pairs, so the cost of an operation is
// the same whether or not it straddles segments.
//
// # Quick Start
//
//	l := biglist.New[int32]()
//	_ = l.Add(1)
//	_ = l.Insert(0, 7)
//	v, _ := l.Get(1) // 1
//
//	for i, v := range l.All() {
//	    fmt.Println(i, v)
//	}
//
// # Construction
//
//	biglist.New[T]()                  // lazy: nothing allocated until the first Add
//	biglist.NewWithCapacity[T](n)     // room for n elements
//	biglist.Of(1, 2, 3)               // literal elements
//	biglist.FromSlice(values)         // copy of a flat slice
//	biglist.FromSequence(seq)         // any Sequence, sized once
//	biglist.FromSeq(maps.Keys(m))     // any iter.Seq
//	biglist.FromIterator(it)          // the rest of an Iterator
//
// # Growth
//
// A list created with New grows to DefaultInitialCapacity on its first
// growth; afterwards capacity grows by half, never by less than needed.
// Only the segments covering the requested capacity are materialized, and
// the last one is sized to fit. Trim releases whole segments past the last
// element.
//
// # Iterators and Views
//
// Iterator is a bidirectional cursor supporting Set, Remove and Add at the
// cursor. SubList is a window over a range of a list (or of another view);
// structural changes through the view keep it consistent, and a view whose
// parent shrank below its bounds fails with ErrConcurrentModification:
//
//	view, _ := l.SubList(10, 20)
//	_ = view.Add(5)   // inserted at parent index 20
//	_ = l.Resize(15)
//	_, err := view.Get(0)
//	errors.Is(err, biglist.ErrConcurrentModification) // true
//
// # Memory Budget
//
// WithResourceController charges every materialized slot to a shared
// resource.Controller. Growth beyond the budget fails with
// ErrCapacityExceeded and leaves the list unchanged.
//
// # Persistence
//
// Package persistence encodes a list as a linear little-endian stream
// (header, elements, CRC32C trailer) and stores it in any blobstore.BlobStore,
// including S3 and MinIO.
//
// # Thread Safety
//
// Lists, iterators and views are not safe for concurrent use.
package biglist
