// mmio_window.go - BusPort decorator for framebuffer/GPIO/audio

/*
MmioWindow intercepts a fixed, hard-coded address range ahead of a
next-level BusPort, the same decorator shape machine_bus.go gives its
I/O regions - except here the ranges are compiled in rather than
registered through a MapIO table, since the window only ever guards
three fixed devices.

store_word is intercepted for the framebuffer range and the audio-note
register; every load other than gpioInAddr, and every store outside
those two cases, falls straight through to the next level. GPIO input is read-only from this
side: load_word(gpioAddr) returns the externally-set input byte, and
there is no corresponding store interception for it.

A framebuffer snapshot (FramebufferSnapshot) is the one read path a UI
poller would use outside the emulated CPU's own load/store traffic.
golang.org/x/sync/singleflight collapses concurrent snapshot requests
from multiple poller goroutines into one copy, the same pattern
machine_bus.go's videoStatusReader gives VIDEO_STATUS polling a
lock-free fast path for.
*/

package main

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

const (
	framebufferBase  = 0x20000000
	framebufferLimit = 0x20002000 // exclusive
	framebufferSize  = framebufferLimit - framebufferBase
	gpioInAddr       = 0x20002000
	audioNoteAddr    = 0x20002004
)

// MmioWindow is a BusPort decorator over a fixed set of memory-mapped
// devices.
type MmioWindow struct {
	next BusPort

	mu          sync.RWMutex
	framebuffer [framebufferSize]byte
	gpioIn      uint8
	audioNote   uint8

	snapshotGroup singleflight.Group
}

// NewMmioWindow constructs a window sitting in front of next.
func NewMmioWindow(next BusPort) *MmioWindow {
	return &MmioWindow{next: next}
}

// SetGPIOInput sets the byte load_word(gpioInAddr) will return, as if an
// external peripheral had driven the pin.
func (w *MmioWindow) SetGPIOInput(v uint8) {
	w.mu.Lock()
	w.gpioIn = v
	w.mu.Unlock()
}

// AudioNote returns the last note byte written to audioNoteAddr.
func (w *MmioWindow) AudioNote() uint8 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.audioNote
}

// FramebufferSnapshot returns a copy of the framebuffer, safe to retain
// and inspect after the call returns. Concurrent callers collapse onto a
// single copy via singleflight.
func (w *MmioWindow) FramebufferSnapshot() [framebufferSize]byte {
	v, _, _ := w.snapshotGroup.Do("snapshot", func() (interface{}, error) {
		w.mu.RLock()
		defer w.mu.RUnlock()
		return w.framebuffer, nil
	})
	return v.([framebufferSize]byte)
}

// LoadWord implements BusPort. Only gpioInAddr is intercepted; everything
// else - including the framebuffer range and the audio register - falls
// through and is not read-backable from this window.
func (w *MmioWindow) LoadWord(addr uint32) (uint32, bool) {
	if addr == gpioInAddr {
		w.mu.RLock()
		v := uint32(w.gpioIn)
		w.mu.RUnlock()
		return v, true
	}
	return w.next.LoadWord(addr)
}

// StoreWord implements BusPort.
func (w *MmioWindow) StoreWord(addr uint32, val uint32) bool {
	switch {
	case addr >= framebufferBase && addr < framebufferLimit:
		w.mu.Lock()
		w.framebuffer[addr-framebufferBase] = byte(val & 0xFF)
		w.mu.Unlock()
		return true

	case addr == audioNoteAddr:
		w.mu.Lock()
		w.audioNote = uint8(val & 0xFF)
		w.mu.Unlock()
		return true

	default:
		return w.next.StoreWord(addr, val)
	}
}
