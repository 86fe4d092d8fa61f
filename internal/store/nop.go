package store

import "time"

// NopStore is a no-op seen store used in dry-run mode: nothing is ever seen
// and nothing is recorded.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) HasSeen(string) (bool, error) { return false, nil }
func (s *NopStore) MarkSeen(string) error        { return nil }
func (s *NopStore) Cleanup(time.Duration) error  { return nil }
func (s *NopStore) IsEmpty() (bool, error)       { return true, nil }
func (s *NopStore) Close() error                 { return nil }
