package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMmioWindow_FramebufferStore(t *testing.T) {
	w := NewMmioWindow(newMemBusPort())

	ok := w.StoreWord(framebufferBase, 0xAB)
	require.True(t, ok)

	snap := w.FramebufferSnapshot()
	require.Equal(t, byte(0xAB), snap[0])
}

func TestMmioWindow_FramebufferLoadFallsThrough(t *testing.T) {
	next := newMemBusPort()
	next.StoreWord(framebufferBase, 0x42)
	w := NewMmioWindow(next)

	v, ok := w.LoadWord(framebufferBase)
	require.True(t, ok)
	require.Equal(t, uint32(0x42), v, "framebuffer loads are not read-backable from the window itself")
}

func TestMmioWindow_GPIOInput(t *testing.T) {
	w := NewMmioWindow(newMemBusPort())
	w.SetGPIOInput(0x7F)

	v, ok := w.LoadWord(gpioInAddr)
	require.True(t, ok)
	require.Equal(t, uint32(0x7F), v)
}

func TestMmioWindow_AudioNoteWrite(t *testing.T) {
	w := NewMmioWindow(newMemBusPort())
	ok := w.StoreWord(audioNoteAddr, 0x3C)
	require.True(t, ok)
	require.Equal(t, uint8(0x3C), w.AudioNote())
}

func TestMmioWindow_DelegatesOutsideWindow(t *testing.T) {
	next := newMemBusPort()
	w := NewMmioWindow(next)

	require.True(t, w.StoreWord(0x1000, 0x99))
	v, ok := next.LoadWord(0x1000)
	require.True(t, ok)
	require.Equal(t, uint32(0x99), v)

	v, ok = w.LoadWord(0x1000)
	require.True(t, ok)
	require.Equal(t, uint32(0x99), v)
}
