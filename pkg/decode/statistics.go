// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package decode

import (
	"fmt"
	"sort"
	"time"
)

// Statistics tracks record statistics and anomaly rates
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalRecords    uint64
	CleanRecords    uint64
	TotalFields     uint64
	DecodeErrors    uint64
	UnknownMessages uint64
	UnknownFields   uint64
	InvalidValues   uint64
	UnnamedEnums    uint64

	// Per message kind
	Kinds map[string]uint64

	// Rates (calculated)
	RecordRate  float64 // records/sec
	AnomalyRate float64 // anomalies/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
		Kinds:          make(map[string]uint64),
	}
}

// Update updates statistics based on a record and its anomalies. A non-nil
// decodeErr counts a record that could not be read at all.
func (s *Statistics) Update(rec *Record, decodeErr error, anomalies []ValidationError) {
	s.TotalRecords++
	s.LastUpdateTime = time.Now()

	if decodeErr != nil || rec == nil {
		s.DecodeErrors++
		return
	}

	s.Kinds[rec.Kind]++
	s.TotalFields += uint64(len(rec.Fields))

	if len(anomalies) == 0 {
		s.CleanRecords++
		return
	}
	for _, a := range anomalies {
		switch a.Type {
		case AnomalyUnknownMessage:
			s.UnknownMessages++
		case AnomalyUnknownField:
			s.UnknownFields++
		case AnomalyInvalidValue:
			s.InvalidValues++
		case AnomalyUnnamedEnum:
			s.UnnamedEnums++
		}
	}
}

// Anomalies returns the total anomaly count
func (s *Statistics) Anomalies() uint64 {
	return s.UnknownMessages + s.UnknownFields + s.InvalidValues + s.UnnamedEnums
}

// CalculateRates calculates record and anomaly rates
func (s *Statistics) CalculateRates() {
	elapsed := s.LastUpdateTime.Sub(s.StartTime).Seconds()
	if elapsed > 0 {
		s.RecordRate = float64(s.TotalRecords) / elapsed
		s.AnomalyRate = float64(s.Anomalies()+s.DecodeErrors) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var cleanPercent float64
	if s.TotalRecords > 0 {
		cleanPercent = float64(s.CleanRecords) * 100.0 / float64(s.TotalRecords)
	}

	elapsed := s.LastUpdateTime.Sub(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Records:   %8d\n", s.TotalRecords)
	result += fmt.Sprintf("Clean Records:   %8d (%.1f%%)\n", s.CleanRecords, cleanPercent)
	result += fmt.Sprintf("Total Fields:    %8d\n", s.TotalFields)

	if s.DecodeErrors > 0 {
		result += fmt.Sprintf("Decode Errors:   %8d\n", s.DecodeErrors)
	}
	if anomalies := s.Anomalies(); anomalies > 0 {
		result += fmt.Sprintf("Anomalies:       %8d\n", anomalies)
		if s.UnknownMessages > 0 {
			result += fmt.Sprintf("  Unknown Messages: %5d\n", s.UnknownMessages)
		}
		if s.UnknownFields > 0 {
			result += fmt.Sprintf("  Unknown Fields:   %5d\n", s.UnknownFields)
		}
		if s.InvalidValues > 0 {
			result += fmt.Sprintf("  Invalid Values:   %5d\n", s.InvalidValues)
		}
		if s.UnnamedEnums > 0 {
			result += fmt.Sprintf("  Unnamed Enums:    %5d\n", s.UnnamedEnums)
		}
	}

	if len(s.Kinds) > 0 {
		result += "Messages:\n"
		for _, kind := range s.sortedKinds() {
			result += fmt.Sprintf("  %-24s %6d\n", kind, s.Kinds[kind])
		}
	}

	if elapsed > 0 {
		result += fmt.Sprintf("Record Rate:     %8.1f recs/sec\n", s.RecordRate)
		result += fmt.Sprintf("Anomaly Rate:    %8.1f anomalies/sec\n", s.AnomalyRate)
	}
	result += "================================\n"

	return result
}

// sortedKinds orders kinds by count, busiest first
func (s *Statistics) sortedKinds() []string {
	kinds := make([]string, 0, len(s.Kinds))
	for k := range s.Kinds {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool {
		if s.Kinds[kinds[i]] != s.Kinds[kinds[j]] {
			return s.Kinds[kinds[i]] > s.Kinds[kinds[j]]
		}
		return kinds[i] < kinds[j]
	})
	return kinds
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
