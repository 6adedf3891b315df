package memory

import memdb "github.com/hashicorp/go-memdb"

const (
	tableShowings     = "showings"
	tableReservations = "reservations"
	tableSeats        = "reserved_seats"

	indexID          = "id"
	indexShowing     = "showing"
	indexReservation = "reservation"
	indexSlot        = "slot"
	indexTitle       = "title"
)

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableShowings: {
				Name: tableShowings,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "ID"},
					},
					indexTitle: {
						Name:         indexTitle,
						AllowMissing: true,
						Indexer:      &memdb.StringFieldIndex{Field: "Title"},
					},
				},
			},
			tableReservations: {
				Name: tableReservations,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "ID"},
					},
					indexShowing: {
						Name:    indexShowing,
						Indexer: &memdb.IntFieldIndex{Field: "ShowingID"},
					},
				},
			},
			tableSeats: {
				Name: tableSeats,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "ID"},
					},
					// go-memdb does not reject duplicates on secondary
					// unique indexes; AddReservedSeats checks it.
					indexSlot: {
						Name:   indexSlot,
						Unique: true,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.IntFieldIndex{Field: "ShowingID"},
								&memdb.IntFieldIndex{Field: "Row"},
								&memdb.IntFieldIndex{Field: "Col"},
							},
						},
					},
					indexReservation: {
						Name:    indexReservation,
						Indexer: &memdb.IntFieldIndex{Field: "ReservationID"},
					},
					indexShowing: {
						Name:    indexShowing,
						Indexer: &memdb.IntFieldIndex{Field: "ShowingID"},
					},
				},
			},
		},
	}
}
