// =============================================================================
// Fuel Invoice Extractor - Plate Association
// =============================================================================
//
// On the IP fuel card invoice the vehicle plate is printed AFTER the
// purchases it covers:
//
//   01/02/23 08:15 12345678 ... GASOLIO SELF 40,00 ... 70,50   <- pending
//   01/02/23 08:20 12345679 ... GASOLIO 35,00 ... 65,10        <- pending
//   TOTALE CARTA TARGA AB123CD                                 <- stamps both
//
// State folds over the lines of one document, in page order and top to
// bottom within a page:
//   - a transaction line appends a pending record to the buffer
//   - a plate marker stamps every pending record with the plate, emits the
//     ones whose (date, time, receipt) key was not seen before, and clears
//     the buffer
//   - at the end of the document, anything still pending is stamped with
//     UnknownVehicle and emitted the same way
//
// A State belongs to exactly one document. It is not safe for concurrent use;
// documents processed in parallel each get their own State.
//
// =============================================================================

package association

import (
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/matcher"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/normalize"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/types"
)

// UnknownVehicle is the plate assigned to purchases no plate marker closed.
const UnknownVehicle = "UNKNOWN VEHICLE"

// Stats counts what the fold has seen.
type Stats struct {
	Transactions   int
	PlateMarkers   int
	Duplicates     int
	UnknownVehicle int
}

// State is the association state of one document.
type State struct {
	pending  []types.Record
	seen     map[types.DedupKey]struct{}
	emitted  []types.Record
	stats    Stats
	finished bool
}

// New returns an empty State: no pending records, no seen keys.
func New() *State {
	return &State{
		seen: make(map[types.DedupKey]struct{}),
	}
}

// Line matches a line and applies the result. It returns the line's kind.
func (s *State) Line(line string) matcher.Kind {
	res := matcher.Match(line)
	s.Apply(res)
	return res.Kind
}

// Apply advances the state by one matched line. Results applied after
// Finish are ignored.
func (s *State) Apply(res matcher.Result) {
	if s.finished {
		return
	}

	switch res.Kind {
	case matcher.Transaction:
		s.stats.Transactions++
		s.pending = append(s.pending, Pending(res.Fields))
	case matcher.PlateMarker:
		s.stats.PlateMarkers++
		s.flush(res.Plate)
	}
}

// Finish stamps any pending records with UnknownVehicle and returns every
// emitted record in emission order. Calling it again returns the same
// records.
func (s *State) Finish() []types.Record {
	if !s.finished {
		before := len(s.emitted)
		s.flush(UnknownVehicle)
		s.stats.UnknownVehicle = len(s.emitted) - before
		s.finished = true
	}
	return s.emitted
}

// PendingCount returns the number of records waiting for a plate.
func (s *State) PendingCount() int {
	return len(s.pending)
}

// Stats returns the counters accumulated so far.
func (s *State) Stats() Stats {
	return s.stats
}

// flush stamps the buffer with plate and emits the records not seen before.
func (s *State) flush(plate string) {
	for _, rec := range s.pending {
		rec.Plate = plate
		key := rec.Key()
		if _, dup := s.seen[key]; dup {
			s.stats.Duplicates++
			continue
		}
		s.seen[key] = struct{}{}
		s.emitted = append(s.emitted, rec)
	}
	s.pending = s.pending[:0]
}

// Pending builds an unassigned record from the fields of a transaction line.
func Pending(f *matcher.Fields) types.Record {
	return types.Record{
		FulfillmentDate: f.Date,
		FulfillmentTime: f.Time,
		Odometer:        normalize.Odometer(f.OdometerRaw),
		Liters:          normalize.Number(f.LitersRaw),
		TotalAmount:     normalize.Number(f.AmountRaw),
		Supplier:        types.SupplierIP,
		FuelSupplyType:  f.FuelSupplyType,
		ReceiptNumber:   f.ReceiptNumber,
		Locality:        f.Locality,
	}
}
