package cart

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"aurave_storefront/internal/cache"
	"aurave_storefront/internal/models"
)

func strp(s string) *string { return &s }

// failingSlot échoue sur toutes les opérations
type failingSlot struct{}

func (failingSlot) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (failingSlot) Set(context.Context, string, []byte) error   { return errors.New("down") }
func (failingSlot) Delete(context.Context, string) error        { return errors.New("down") }

func newTestStore(t *testing.T) (*Store, *cache.MemorySlot) {
	t.Helper()
	slot := cache.NewMemorySlot()
	s := NewStore(slot, "auraveCart:test", nil)
	s.Load(context.Background())
	return s, slot
}

func checkTotals(t *testing.T, s *Store) {
	t.Helper()
	items, price := 0, 0
	for _, it := range s.Items() {
		if it.Quantity < 1 {
			t.Fatalf("item %q has quantity %d", it.Name, it.Quantity)
		}
		items += it.Quantity
		price += it.Price * it.Quantity
	}
	if s.TotalItems() != items {
		t.Fatalf("TotalItems = %d, want %d", s.TotalItems(), items)
	}
	if s.TotalPrice() != price {
		t.Fatalf("TotalPrice = %d, want %d", s.TotalPrice(), price)
	}
}

func TestAddMergesSameNameAndSize(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	if err := s.Add(ctx, "Tee", 2000, "tee.jpg", strp("M"), 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(ctx, "Tee", 2000, "tee.jpg", strp("M"), 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	items := s.Items()
	if len(items) != 1 {
		t.Fatalf("len = %d, want 1", len(items))
	}
	if items[0].Quantity != 3 {
		t.Fatalf("quantity = %d, want 3", items[0].Quantity)
	}
	if items[0].LineTotal() != 6000 {
		t.Fatalf("line total = %d, want 6000", items[0].LineTotal())
	}
	checkTotals(t, s)
}

func TestAddKeepsSizesAndNoSizeDistinct(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_ = s.Add(ctx, "Tee", 2000, "", nil, 1)
	_ = s.Add(ctx, "Tee", 2000, "", strp("M"), 1)
	_ = s.Add(ctx, "Tee", 2000, "", strp("L"), 1)
	_ = s.Add(ctx, "Tee", 2000, "", nil, 4)

	items := s.Items()
	if len(items) != 3 {
		t.Fatalf("len = %d, want 3", len(items))
	}
	if items[0].Size != nil || items[0].Quantity != 5 {
		t.Fatalf("no-size row = %+v, want quantity 5 without size", items[0])
	}
	if items[1].SizeLabel() != "M" || items[2].SizeLabel() != "L" {
		t.Fatalf("order not preserved: %q, %q", items[1].SizeLabel(), items[2].SizeLabel())
	}
	checkTotals(t, s)
}

func TestAddKeepsCapturedPrice(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_ = s.Add(ctx, "Cap", 1500, "", nil, 1)
	_ = s.Add(ctx, "Cap", 1800, "", nil, 1)

	items := s.Items()
	if items[0].Price != 1500 || items[0].Quantity != 2 {
		t.Fatalf("item = %+v, want price 1500 quantity 2", items[0])
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	s, slot := newTestStore(t)

	notified := 0
	s.Subscribe(func(Event) { notified++ })

	tests := []struct {
		name  string
		price int
		qty   int
		want  error
	}{
		{"negative price", -1, 1, ErrInvalidPrice},
		{"zero quantity", 100, 0, ErrInvalidQuantity},
		{"negative quantity", 100, -3, ErrInvalidQuantity},
		{"price above cap", models.MaxPrice + 1, 1, ErrInvalidPrice},
		{"overflowing price", int(^uint(0) >> 1), 2, ErrInvalidPrice},
		{"quantity above cap", 100, models.MaxQuantity + 1, ErrInvalidQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Add(ctx, "Tee", tt.price, "", nil, tt.qty); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if s.Len() != 0 {
		t.Fatalf("len = %d, want 0", s.Len())
	}
	if notified != 0 {
		t.Fatalf("notified %d times, want 0", notified)
	}
	if _, err := slot.Get(ctx, "auraveCart:test"); !errors.Is(err, cache.ErrMiss) {
		t.Fatalf("slot written on rejected add: %v", err)
	}
}

func TestAddZeroPriceAllowed(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.Add(context.Background(), "Gift", 0, "", nil, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if s.TotalPrice() != 0 || s.TotalItems() != 1 {
		t.Fatalf("totals = %d/%d", s.TotalItems(), s.TotalPrice())
	}
}

func TestTotals(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_ = s.Add(ctx, "Tee", 2000, "", nil, 2)
	_ = s.Add(ctx, "Cap", 1500, "", nil, 1)

	if s.TotalItems() != 3 {
		t.Fatalf("TotalItems = %d, want 3", s.TotalItems())
	}
	if s.TotalPrice() != 5500 {
		t.Fatalf("TotalPrice = %d, want 5500", s.TotalPrice())
	}
}

func TestRemoveOutOfRangeIsNoop(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_ = s.Add(ctx, "Tee", 2000, "", nil, 2)
	_ = s.Add(ctx, "Cap", 1500, "", nil, 1)
	before := s.Items()

	notified := 0
	s.Subscribe(func(Event) { notified++ })

	for _, idx := range []int{5, 2, -1} {
		if err := s.Remove(ctx, idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("Remove(%d) err = %v, want ErrIndexOutOfRange", idx, err)
		}
		if err := s.Increment(ctx, idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("Increment(%d) err = %v", idx, err)
		}
		if err := s.Decrement(ctx, idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("Decrement(%d) err = %v", idx, err)
		}
	}

	if !reflect.DeepEqual(before, s.Items()) {
		t.Fatalf("cart changed: %+v", s.Items())
	}
	if notified != 0 {
		t.Fatalf("notified %d times, want 0", notified)
	}
}

func TestRemoveKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_ = s.Add(ctx, "A", 1, "", nil, 1)
	_ = s.Add(ctx, "B", 2, "", nil, 1)
	_ = s.Add(ctx, "C", 3, "", nil, 1)

	if err := s.Remove(ctx, 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	items := s.Items()
	if len(items) != 2 || items[0].Name != "A" || items[1].Name != "C" {
		t.Fatalf("items = %+v", items)
	}
}

func TestIncrementDecrement(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_ = s.Add(ctx, "Tee", 2000, "", nil, 1)

	if err := s.Increment(ctx, 0); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if got := s.Items()[0].Quantity; got != 2 {
		t.Fatalf("quantity = %d, want 2", got)
	}
	if err := s.Decrement(ctx, 0); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if got := s.Items()[0].Quantity; got != 1 {
		t.Fatalf("quantity = %d, want 1", got)
	}
	checkTotals(t, s)
}

func TestDecrementAtOneRemovesItem(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_ = s.Add(ctx, "Tee", 2000, "", nil, 1)
	_ = s.Add(ctx, "Cap", 1500, "", nil, 3)

	var events []Event
	s.Subscribe(func(ev Event) {
		for _, it := range s.Items() {
			if it.Quantity == 0 {
				t.Fatalf("zero-quantity item observable: %+v", it)
			}
		}
		events = append(events, ev)
	})

	if err := s.Decrement(ctx, 0); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
	if s.Items()[0].Name != "Cap" {
		t.Fatalf("remaining = %q, want Cap", s.Items()[0].Name)
	}
	if len(events) != 1 || events[0].Kind != EventRemoved || events[0].Item.Name != "Tee" {
		t.Fatalf("events = %+v", events)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s, slot := newTestStore(t)
	_ = s.Add(ctx, "Tee", 2000, "", nil, 1)

	s.Clear(ctx)
	if s.Len() != 0 || s.TotalPrice() != 0 || s.TotalItems() != 0 {
		t.Fatalf("cart not empty after clear")
	}
	if _, err := slot.Get(ctx, "auraveCart:test"); !errors.Is(err, cache.ErrMiss) {
		t.Fatalf("slot still holds cart: %v", err)
	}
}

func TestPersistThenNotify(t *testing.T) {
	ctx := context.Background()
	s, slot := newTestStore(t)

	var persisted []byte
	s.Subscribe(func(Event) {
		persisted, _ = slot.Get(ctx, "auraveCart:test")
	})

	_ = s.Add(ctx, "Tee", 2000, "tee.jpg", strp("M"), 1)
	if len(persisted) == 0 {
		t.Fatal("listener ran before the cart was persisted")
	}
}

func TestPersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, slot := newTestStore(t)
	_ = s.Add(ctx, "Tee", 2000, "tee.jpg", strp("M"), 2)
	_ = s.Add(ctx, "Cap", 1500, "cap.jpg", nil, 1)
	_ = s.Add(ctx, "Hoodie", 4500, "hoodie.jpg", strp(""), 1)

	restored := NewStore(slot, "auraveCart:test", nil)
	restored.Load(ctx)

	want, got := s.Items(), restored.Items()
	if len(want) != len(got) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		w, g := want[i], got[i]
		w.ID, g.ID = "", ""
		if !reflect.DeepEqual(w, g) {
			t.Fatalf("item %d = %+v, want %+v", i, g, w)
		}
	}
	if got[1].Size != nil {
		t.Fatal("absent size restored as present")
	}
	if got[2].Size == nil || *got[2].Size != "" {
		t.Fatal("empty size not preserved")
	}
}

func TestLoadFailsSoft(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		data string
	}{
		{"garbage", "{not json"},
		{"wrong shape", `{"name":"Tee"}`},
		{"null", "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := cache.NewMemorySlot()
			_ = slot.Set(ctx, "k", []byte(tt.data))
			s := NewStore(slot, "k", nil)
			if got := s.Load(ctx); len(got) != 0 {
				t.Fatalf("Load = %+v, want empty", got)
			}
		})
	}

	s := NewStore(failingSlot{}, "k", nil)
	if got := s.Load(ctx); len(got) != 0 {
		t.Fatalf("Load on failing slot = %+v", got)
	}
}

func TestLoadSanitizesStoredItems(t *testing.T) {
	ctx := context.Background()
	slot := cache.NewMemorySlot()
	data := `[
		{"name":"Tee","price":2000,"image":"a","quantity":1,"size":"M"},
		{"name":"Bad","price":100,"image":"b","quantity":0},
		{"name":"Neg","price":-5,"image":"c","quantity":1},
		{"name":"Tee","price":2000,"image":"a","quantity":2,"size":"M"},
		{"name":"Cap","price":1500,"image":"d","quantity":1,"extra":"ignored"}
	]`
	_ = slot.Set(ctx, "k", []byte(data))

	s := NewStore(slot, "k", nil)
	items := s.Load(ctx)
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(items), items)
	}
	if items[0].Name != "Tee" || items[0].Quantity != 3 {
		t.Fatalf("merged item = %+v", items[0])
	}
	if items[0].ID == "" || items[1].ID == "" || items[0].ID == items[1].ID {
		t.Fatal("restored items need distinct ids")
	}
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	s := NewStore(failingSlot{}, "k", nil)
	s.Load(ctx)

	notified := 0
	s.Subscribe(func(Event) { notified++ })

	if err := s.Add(ctx, "Tee", 2000, "", nil, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if s.Len() != 1 || notified != 1 {
		t.Fatalf("len = %d notified = %d", s.Len(), notified)
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_ = s.Add(ctx, "Tee", 2000, "", strp("M"), 1)

	items := s.Items()
	items[0].Quantity = 99
	*items[0].Size = "XL"

	got := s.Items()[0]
	if got.Quantity != 1 || got.SizeLabel() != "M" {
		t.Fatalf("store mutated through copy: %+v", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	a, b := 0, 0
	stopA := s.Subscribe(func(Event) { a++ })
	s.Subscribe(func(Event) { b++ })

	_ = s.Add(ctx, "Tee", 1, "", nil, 1)
	stopA()
	_ = s.Add(ctx, "Tee", 1, "", nil, 1)

	if a != 1 || b != 2 {
		t.Fatalf("a = %d b = %d, want 1 and 2", a, b)
	}
}

func TestIndexOfIDFollowsItemAcrossRemovals(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_ = s.Add(ctx, "A", 1, "", nil, 1)
	_ = s.Add(ctx, "B", 1, "", nil, 1)
	id := s.Items()[1].ID

	_ = s.Remove(ctx, 0)
	if got := s.IndexOfID(id); got != 0 {
		t.Fatalf("IndexOfID = %d, want 0", got)
	}
	if got := s.IndexOfID("missing"); got != -1 {
		t.Fatalf("IndexOfID(missing) = %d", got)
	}
}

func TestReloadPicksUpOtherWriter(t *testing.T) {
	ctx := context.Background()
	slot := cache.NewMemorySlot()
	a := NewStore(slot, "k", nil)
	a.Load(ctx)
	b := NewStore(slot, "k", nil)
	b.Load(ctx)

	_ = b.Add(ctx, "Tee", 2000, "", nil, 2)

	var kinds []EventKind
	a.Subscribe(func(ev Event) { kinds = append(kinds, ev.Kind) })
	a.Reload(ctx)

	if a.TotalItems() != 2 {
		t.Fatalf("TotalItems = %d, want 2", a.TotalItems())
	}
	if len(kinds) != 1 || kinds[0] != EventLoaded {
		t.Fatalf("events = %v", kinds)
	}
}

// flakySlot délègue à un MemorySlot tant que down est faux
type flakySlot struct {
	*cache.MemorySlot
	down bool
}

func (f *flakySlot) Get(ctx context.Context, key string) ([]byte, error) {
	if f.down {
		return nil, errors.New("down")
	}
	return f.MemorySlot.Get(ctx, key)
}

func TestReloadKeepsStateWhenSlotUnreachable(t *testing.T) {
	ctx := context.Background()
	slot := &flakySlot{MemorySlot: cache.NewMemorySlot()}
	s := NewStore(slot, "k", nil)
	s.Load(ctx)
	_ = s.Add(ctx, "Tee", 2000, "", nil, 1)

	slot.down = true
	s.Reload(ctx)
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
}

func TestQuantityCapHoldsAcrossMergeAndIncrement(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	if err := s.Add(ctx, "Tee", models.MaxPrice, "", nil, models.MaxQuantity-1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(ctx, "Tee", models.MaxPrice, "", nil, 2); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("merge past cap err = %v", err)
	}
	if err := s.Increment(ctx, 0); err != nil {
		t.Fatalf("increment to cap: %v", err)
	}
	if err := s.Increment(ctx, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("increment past cap err = %v", err)
	}

	if got := s.Items()[0].Quantity; got != models.MaxQuantity {
		t.Fatalf("quantity = %d, want %d", got, models.MaxQuantity)
	}
	if want := models.MaxPrice * models.MaxQuantity; s.TotalPrice() != want || s.TotalPrice() <= 0 {
		t.Fatalf("total = %d, want %d", s.TotalPrice(), want)
	}
	checkTotals(t, s)
}

func TestLoadDropsOutOfBoundsRows(t *testing.T) {
	ctx := context.Background()
	slot := cache.NewMemorySlot()
	_ = slot.Set(ctx, "k", []byte(`[{"name":"Huge","price":9223372036854775807,"image":"","quantity":2},{"name":"Tee","price":100,"image":"","quantity":1}]`))

	s := NewStore(slot, "k", nil)
	items := s.Load(ctx)
	if len(items) != 1 || items[0].Name != "Tee" {
		t.Fatalf("items = %+v", items)
	}
}
