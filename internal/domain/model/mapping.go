package model

import "time"

// InstrumentMapping links an aToken / debt token to its reserve.
type InstrumentMapping struct {
	Instrument      string    `db:"instrument" yaml:"instrument" json:"instrument"`
	Pool            string    `db:"pool" yaml:"pool" json:"pool"`
	UnderlyingAsset string    `db:"underlying_asset" yaml:"underlying_asset" json:"underlying_asset"`
	CreatedAt       time.Time `db:"created_at" yaml:"-" json:"-"`
}

func (m InstrumentMapping) ReserveID() string {
	return ReserveID(m.UnderlyingAsset, m.Pool)
}
