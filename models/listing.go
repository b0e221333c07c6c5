package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NoBadge is the badge value of a listing that carries no badges.
const NoBadge = "None"

// RawListing is one search-result record exactly as the listing source dumps it.
// Only the fields the normalizer reads are decoded; coordinates, images, kind and
// long_stay_discount are ignored.
type RawListing struct {
	RoomID   RoomID               `json:"room_id"`
	Name     string               `json:"name"`
	Title    string               `json:"title"`
	Category string               `json:"category"`
	Type     string               `json:"type"`
	Price    *RawPrice            `json:"price"`
	Fee      map[string]RawAmount `json:"fee"`
	Rating   *RawRating           `json:"rating"`
	Badges   []json.RawMessage    `json:"badges"`
}

type RawPrice struct {
	Total *RawAmount `json:"total"`
}

type RawAmount struct {
	Amount *Number `json:"amount"`
}

type RawRating struct {
	Value       *Number `json:"value"`
	ReviewCount *Number `json:"reviewCount"`
}

// Listing is the flat, normalized record. Stars and ReviewCount are NaN when absent.
type Listing struct {
	RoomID      string
	City        string
	Name        string
	Title       string
	Category    string
	Type        string
	Price       float64
	Fee         float64
	Stars       float64
	ReviewCount float64
	Badge       string
}

// RoomID accepts both numeric and string ids from the source.
type RoomID string

func (r *RoomID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = RoomID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("room_id: %w", err)
	}
	*r = RoomID(n.String())
	return nil
}

// Number is a float that tolerates numeric strings. Strings that do not parse
// decode to NaN rather than failing the whole document.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
		if err != nil {
			f = math.NaN()
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// Float returns the value or NaN when n is nil.
func (n *Number) Float() float64 {
	if n == nil {
		return math.NaN()
	}
	return float64(*n)
}
