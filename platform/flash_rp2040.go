//go:build rp2040

package platform

import "machine"

// FlashMedium keeps the counters in the first erase block of the flash data
// region as one CRC-checked record.
type FlashMedium struct {
	cells
}

func (f *FlashMedium) Begin(size int) error {
	f.begin(size)
	raw := make([]byte, recordSize(size))
	if _, err := machine.Flash.ReadAt(raw, 0); err != nil {
		return err
	}
	decodeRecord(raw, f.c)
	return nil
}

func (f *FlashMedium) Commit() error {
	rec := encodeRecord(f.c)
	wbs := int(machine.Flash.WriteBlockSize())
	if pad := len(rec) % wbs; pad != 0 {
		for i := 0; i < wbs-pad; i++ {
			rec = append(rec, 0xFF)
		}
	}
	if err := machine.Flash.EraseBlocks(0, 1); err != nil {
		return err
	}
	_, err := machine.Flash.WriteAt(rec, 0)
	return err
}

func (f *FlashMedium) End() error { return nil }
