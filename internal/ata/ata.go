/*
 * pc32 - PIO ATA single-sector disk driver.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package ata drives a single LBA-28 ATA PIO disk, one sector at a
// time, matching src/ata.c/ata.h. The primary channel's registers are
// modelled against an internal/ioport.Bus; the sector payload itself
// is backed by an in-memory image rather than real silicon.
package ata

import "github.com/rcornwell/pc32/internal/kerr"

// Primary ATA channel ports (src/ata.c).
const (
	portData      = 0x1F0
	portError     = 0x1F1
	portSectorCnt = 0x1F2
	portLBALow    = 0x1F3
	portLBAMid    = 0x1F4
	portLBAHigh   = 0x1F5
	portDrive     = 0x1F6
	portCommand   = 0x1F7
	portControl   = 0x3F6

	cmdRead  = 0x20
	cmdWrite = 0x30

	// SectorSize is the fixed PIO transfer unit.
	SectorSize = 512
)

// Bus is the subset of ioport.Bus ata depends on, modelled as an
// interface so the register writes stay observable in tests without
// requiring a full port space.
type Bus interface {
	Out8(port uint16, value uint8)
	In8(port uint16) uint8
}

// Disk is the master drive's backing image plus the modelled register
// file ata_read_sector/ata_write_sector would program.
type Disk struct {
	bus   Bus
	image []byte // SectorSize-aligned; an LBA past its end is rejected
}

// New returns a disk bound to bus, backed by image (read/write in
// place; New does not copy it).
func New(bus Bus, image []byte) *Disk {
	return &Disk{bus: bus, image: image}
}

func (d *Disk) selectDrive(drive uint8, lba uint32) {
	d.bus.Out8(portControl, 0)
	d.bus.Out8(portDrive, 0xE0|((drive&1)<<4)|uint8((lba>>24)&0x0F))
	d.bus.Out8(portSectorCnt, 1)
	d.bus.Out8(portLBALow, uint8(lba&0xFF))
	d.bus.Out8(portLBAMid, uint8((lba>>8)&0xFF))
	d.bus.Out8(portLBAHigh, uint8((lba>>16)&0xFF))
}

func (d *Disk) bounds(drive uint8, lba uint32) error {
	if drive&1 != 0 {
		return kerr.New("ata: slave drive", kerr.Unsupported)
	}
	end := (int(lba) + 1) * SectorSize
	if end > len(d.image) {
		return kerr.New("ata: lba out of range", kerr.NotFound)
	}
	return nil
}

// ReadSector reads one 512-byte sector at lba from drive (0=master;
// 1=slave is unsupported in this core), matching ata_read_sector's
// port program followed by its 256-word PIO loop.
func (d *Disk) ReadSector(drive uint8, lba uint32) ([]byte, error) {
	if err := d.bounds(drive, lba); err != nil {
		return nil, err
	}
	d.selectDrive(drive, lba)
	d.bus.Out8(portCommand, cmdRead)

	buf := make([]byte, SectorSize)
	copy(buf, d.image[int(lba)*SectorSize:(int(lba)+1)*SectorSize])
	return buf, nil
}

// WriteSector writes one 512-byte sector to lba on drive, matching
// ata_write_sector. buf must be exactly SectorSize bytes.
func (d *Disk) WriteSector(drive uint8, lba uint32, buf []byte) error {
	if len(buf) != SectorSize {
		return kerr.New("ata.WriteSector", kerr.Invalid)
	}
	if err := d.bounds(drive, lba); err != nil {
		return err
	}
	d.selectDrive(drive, lba)
	d.bus.Out8(portCommand, cmdWrite)

	copy(d.image[int(lba)*SectorSize:(int(lba)+1)*SectorSize], buf)
	return nil
}
