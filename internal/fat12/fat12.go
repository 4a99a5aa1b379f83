/*
 * pc32 - FAT12 filesystem over PIO ATA.
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

// Package fat12 implements the on-disk FAT12 layout over a single ATA
// drive: BPB-derived geometry, 12-bit packed FAT entries, 32-byte 8.3
// directory entries in a fixed-size root directory, and the CRUD
// operations fs.c exposes (fs_init/read/write/delete/ls/append/
// rename/free_space).
package fat12

import (
	"github.com/rcornwell/pc32/internal/ata"
	"github.com/rcornwell/pc32/internal/kerr"
)

const (
	deletedMarker = 0xE5
	freeMarker    = 0x00
	attrVolumeID  = 0x08
	attrArchive   = 0x20

	dirEntrySize = 32
	eocThreshold = 0xFF8 // any cluster value >= this is end-of-chain
	eocWrite     = 0xFFF
)

// Info is the geometry fs_init computes from the boot sector (the
// BIOS Parameter Block).
type Info struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	RootEntries       uint16
	FATSize           uint16
	FATStart          uint32
	RootDirStart      uint32
	DataStart         uint32
}

// Entry is one root-directory listing row, matching fs_ls_callback's
// (name, size) pair.
type Entry struct {
	Name string
	Size uint32
}

// FS is a mounted FAT12 volume.
type FS struct {
	disk *ata.Disk
	info Info
}

// New returns an unmounted filesystem bound to disk; call Init before
// any other method.
func New(disk *ata.Disk) *FS {
	return &FS{disk: disk}
}

// Init reads the boot sector and computes fat_start/root_dir_start/
// data_start, matching fs_init's BPB field extraction.
func (f *FS) Init() error {
	bs, err := f.disk.ReadSector(0, 0)
	if err != nil {
		return err
	}
	i := Info{
		BytesPerSector:    le16(bs, 11),
		SectorsPerCluster: bs[13],
		ReservedSectors:   le16(bs, 14),
		NumFATs:           bs[16],
		RootEntries:       le16(bs, 17),
		FATSize:           le16(bs, 22),
	}
	i.FATStart = uint32(i.ReservedSectors)
	i.RootDirStart = i.FATStart + uint32(i.NumFATs)*uint32(i.FATSize)
	i.DataStart = i.RootDirStart + rootDirSectors(i.RootEntries)
	f.info = i
	return nil
}

// Info returns the mounted geometry, for inspection/testing.
func (f *FS) Info() Info { return f.info }

func rootDirSectors(rootEntries uint16) uint32 {
	return (uint32(rootEntries)*dirEntrySize + ata.SectorSize - 1) / ata.SectorSize
}

func le16(b []byte, off int) uint16 {
	return uint16(b[off]) | uint16(b[off+1])<<8
}

func maxClusters(i Info) uint16 {
	return uint16((uint32(i.FATSize) * ata.SectorSize * 2) / 3)
}

// fatGet reads the 12-bit FAT entry for cluster, matching fat_get's
// odd/even byte-packing.
func (f *FS) fatGet(cluster uint16) (uint16, error) {
	byteOff := uint32(cluster) + uint32(cluster)/2
	lba := f.info.FATStart + byteOff/ata.SectorSize
	sector, err := f.disk.ReadSector(0, lba)
	if err != nil {
		return 0, err
	}
	idx := byteOff % ata.SectorSize
	low, high := sector[idx], sector[idx+1]
	if cluster&1 != 0 {
		return (uint16(low>>4) | uint16(high)<<4) & 0x0FFF, nil
	}
	return (uint16(low) | uint16(high&0x0F)<<8) & 0x0FFF, nil
}

// fatSet writes value into every on-disk FAT copy for cluster,
// matching fat_set's "for fat := 0; fat < num_fats" loop.
func (f *FS) fatSet(cluster, value uint16) error {
	value &= 0x0FFF
	byteOff := uint32(cluster) + uint32(cluster)/2
	for fat := uint8(0); fat < f.info.NumFATs; fat++ {
		lba := f.info.FATStart + uint32(fat)*uint32(f.info.FATSize) + byteOff/ata.SectorSize
		sector, err := f.disk.ReadSector(0, lba)
		if err != nil {
			return err
		}
		idx := byteOff % ata.SectorSize
		if cluster&1 != 0 {
			sector[idx] = (sector[idx] & 0x0F) | byte((value&0x00F)<<4)
			sector[idx+1] = byte((value >> 4) & 0xFF)
		} else {
			sector[idx] = byte(value & 0xFF)
			sector[idx+1] = (sector[idx+1] & 0xF0) | byte((value>>8)&0x0F)
		}
		if err := f.disk.WriteSector(0, lba, sector); err != nil {
			return err
		}
	}
	return nil
}

// allocCluster scans from cluster 2 for the first free entry, marks
// it end-of-chain, and returns its number, matching alloc_cluster.
// kerr.Full stands in for its "return 0" disk-full sentinel.
func (f *FS) allocCluster() (uint16, error) {
	max := maxClusters(f.info)
	for c := uint16(2); c < max; c++ {
		v, err := f.fatGet(c)
		if err != nil {
			return 0, err
		}
		if v == 0x000 {
			if err := f.fatSet(c, eocWrite); err != nil {
				return 0, err
			}
			return c, nil
		}
	}
	return 0, kerr.New("fat12.allocCluster", kerr.Full)
}

// freeClusterChain walks start's chain, clearing each entry, matching
// free_cluster_chain.
func (f *FS) freeClusterChain(start uint16) error {
	c := start
	for c >= 2 && c < eocThreshold {
		next, err := f.fatGet(c)
		if err != nil {
			return err
		}
		if err := f.fatSet(c, 0x000); err != nil {
			return err
		}
		c = next
	}
	return nil
}

func toFATName(name string) (string, error) {
	if name == "" {
		return "", kerr.New("fat12.toFATName", kerr.Invalid)
	}
	out := []byte("           ") // 11 spaces
	base, ext, hasDot := cutDot(name)
	if len(base) > 8 || len(ext) > 3 {
		return "", kerr.New("fat12.toFATName", kerr.Invalid)
	}
	for i := 0; i < len(base); i++ {
		out[i] = upper(base[i])
	}
	if hasDot {
		for i := 0; i < len(ext); i++ {
			out[8+i] = upper(ext[i])
		}
	}
	return string(out), nil
}

func cutDot(name string) (base, ext string, hasDot bool) {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[:i], name[i+1:], true
		}
	}
	return name, "", false
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 32
	}
	return c
}

func displayName(raw []byte) string {
	name := make([]byte, 0, 12)
	for i := 0; i < 11; i++ {
		c := raw[i]
		if i == 8 && c != ' ' {
			name = append(name, '.')
		}
		if c != ' ' {
			name = append(name, c)
		}
	}
	return string(name)
}

// findDirEntry scans the root directory for fatname, matching
// find_dir_entry.
func (f *FS) findDirEntry(fatname string) (lba uint32, off int, found bool, err error) {
	rootSectors := rootDirSectors(f.info.RootEntries)
	for s := uint32(0); s < rootSectors; s++ {
		lba := f.info.RootDirStart + s
		sector, rerr := f.disk.ReadSector(0, lba)
		if rerr != nil {
			return 0, 0, false, rerr
		}
		for off := 0; off < ata.SectorSize; off += dirEntrySize {
			first := sector[off]
			if first == freeMarker {
				return 0, 0, false, nil
			}
			if first == deletedMarker {
				continue
			}
			if string(sector[off:off+11]) == fatname {
				return lba, off, true, nil
			}
		}
	}
	return 0, 0, false, nil
}

// createDirEntry writes a fresh 8.3 entry into the first free or
// deleted slot, matching create_dir_entry.
func (f *FS) createDirEntry(fatname string, firstCluster uint16, size uint32) error {
	rootSectors := rootDirSectors(f.info.RootEntries)
	for s := uint32(0); s < rootSectors; s++ {
		lba := f.info.RootDirStart + s
		sector, err := f.disk.ReadSector(0, lba)
		if err != nil {
			return err
		}
		for off := 0; off < ata.SectorSize; off += dirEntrySize {
			first := sector[off]
			if first != freeMarker && first != deletedMarker {
				continue
			}
			copy(sector[off:off+11], fatname)
			sector[off+11] = attrArchive
			for i := 12; i < 32; i++ {
				sector[off+i] = 0
			}
			sector[off+26] = byte(firstCluster & 0xFF)
			sector[off+27] = byte(firstCluster >> 8)
			sector[off+28] = byte(size & 0xFF)
			sector[off+29] = byte((size >> 8) & 0xFF)
			sector[off+30] = byte((size >> 16) & 0xFF)
			sector[off+31] = byte((size >> 24) & 0xFF)
			return f.disk.WriteSector(0, lba, sector)
		}
	}
	return kerr.New("fat12.createDirEntry", kerr.Full)
}

func (f *FS) deleteEntryAt(lba uint32, off int) error {
	sector, err := f.disk.ReadSector(0, lba)
	if err != nil {
		return err
	}
	sector[off] = deletedMarker
	return f.disk.WriteSector(0, lba, sector)
}

// Read returns up to maxlen bytes of filename's contents, matching
// fs_read's cluster-chain walk and its maxlen/filesize double bound.
func (f *FS) Read(filename string, maxlen uint32) ([]byte, error) {
	fatname, err := toFATName(filename)
	if err != nil {
		return nil, err
	}
	lba, off, found, err := f.findDirEntry(fatname)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, kerr.New("fat12.Read", kerr.NotFound)
	}
	sector, err := f.disk.ReadSector(0, lba)
	if err != nil {
		return nil, err
	}
	cluster := le16(sector, off+26)
	filesize := uint32(sector[off+28]) | uint32(sector[off+29])<<8 |
		uint32(sector[off+30])<<16 | uint32(sector[off+31])<<24

	out := make([]byte, 0, min32(filesize, maxlen))
	var read uint32
	for cluster < eocThreshold && read < filesize && read < maxlen {
		lba := f.info.DataStart + uint32(cluster-2)*uint32(f.info.SectorsPerCluster)
		for i := uint8(0); i < f.info.SectorsPerCluster; i++ {
			sec, err := f.disk.ReadSector(0, lba+uint32(i))
			if err != nil {
				return nil, err
			}
			remaining := filesize - read
			tocopy := remaining
			if tocopy > ata.SectorSize {
				tocopy = ata.SectorSize
			}
			if maxRemaining := maxlen - read; tocopy > maxRemaining {
				tocopy = maxRemaining
			}
			out = append(out, sec[:tocopy]...)
			read += tocopy
			if read >= filesize || read >= maxlen {
				break
			}
		}
		next, err := f.fatGet(cluster)
		if err != nil {
			return nil, err
		}
		cluster = next
	}
	return out, nil
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

// List returns every live (non-deleted, non-volume-label) root entry,
// matching fs_ls's callback-driven scan.
func (f *FS) List() ([]Entry, error) {
	var entries []Entry
	rootSectors := rootDirSectors(f.info.RootEntries)
	for s := uint32(0); s < rootSectors; s++ {
		lba := f.info.RootDirStart + s
		sector, err := f.disk.ReadSector(0, lba)
		if err != nil {
			return nil, err
		}
		for off := 0; off < ata.SectorSize; off += dirEntrySize {
			first := sector[off]
			if first == freeMarker {
				return entries, nil
			}
			if first == deletedMarker || sector[off+11]&attrVolumeID != 0 {
				continue
			}
			size := uint32(sector[off+28]) | uint32(sector[off+29])<<8 |
				uint32(sector[off+30])<<16 | uint32(sector[off+31])<<24
			entries = append(entries, Entry{Name: displayName(sector[off : off+11]), Size: size})
		}
	}
	return entries, nil
}

// Delete frees filename's cluster chain and marks its directory entry
// deleted, matching fs_delete.
func (f *FS) Delete(filename string) error {
	fatname, err := toFATName(filename)
	if err != nil {
		return err
	}
	lba, off, found, err := f.findDirEntry(fatname)
	if err != nil {
		return err
	}
	if !found {
		return kerr.New("fat12.Delete", kerr.NotFound)
	}
	sector, err := f.disk.ReadSector(0, lba)
	if err != nil {
		return err
	}
	firstCluster := le16(sector, off+26)
	if firstCluster >= 2 {
		if err := f.freeClusterChain(firstCluster); err != nil {
			return err
		}
	}
	return f.deleteEntryAt(lba, off)
}

// Write creates or overwrites filename with data, matching fs_write:
// any existing file is deleted first, then clusters are allocated and
// chained one at a time.
func (f *FS) Write(filename string, data []byte) error {
	fatname, err := toFATName(filename)
	if err != nil {
		return err
	}
	// Errors deleting a file that does not yet exist are expected and
	// silently ignored, matching fs_write's unconditional fs_delete call.
	_ = f.Delete(filename)

	if len(data) == 0 {
		return f.createDirEntry(fatname, 0, 0)
	}

	var firstCluster, prevCluster uint16
	remaining := uint32(len(data))
	p := data

	for remaining > 0 {
		c, err := f.allocCluster()
		if err != nil {
			if firstCluster != 0 {
				f.freeClusterChain(firstCluster)
			}
			return err
		}
		if firstCluster == 0 {
			firstCluster = c
		}
		if prevCluster != 0 {
			if err := f.fatSet(prevCluster, c); err != nil {
				return err
			}
		}
		prevCluster = c

		lba := f.info.DataStart + uint32(c-2)*uint32(f.info.SectorsPerCluster)
		for s := uint8(0); s < f.info.SectorsPerCluster; s++ {
			buf := make([]byte, ata.SectorSize)
			tocopy := remaining
			if tocopy > ata.SectorSize {
				tocopy = ata.SectorSize
			}
			copy(buf, p[:tocopy])
			if err := f.disk.WriteSector(0, lba+uint32(s), buf); err != nil {
				f.freeClusterChain(firstCluster)
				return err
			}
			if remaining > ata.SectorSize {
				remaining -= ata.SectorSize
				p = p[ata.SectorSize:]
			} else {
				p = p[remaining:]
				remaining = 0
				break
			}
		}
	}

	if err := f.fatSet(prevCluster, eocWrite); err != nil {
		return err
	}
	if err := f.createDirEntry(fatname, firstCluster, uint32(len(data))); err != nil {
		f.freeClusterChain(firstCluster)
		return err
	}
	return nil
}

// Append reads filename's current contents, concatenates data, and
// rewrites the file, matching fs_append's "naive – reload and
// re-write completely" comment.
func (f *FS) Append(filename string, data []byte) error {
	var old []byte
	fatname, err := toFATName(filename)
	if err != nil {
		return err
	}
	if lba, off, found, ferr := f.findDirEntry(fatname); ferr == nil && found {
		sector, err := f.disk.ReadSector(0, lba)
		if err != nil {
			return err
		}
		oldSize := uint32(sector[off+28]) | uint32(sector[off+29])<<8 |
			uint32(sector[off+30])<<16 | uint32(sector[off+31])<<24
		if oldSize > 0 {
			old, err = f.Read(filename, oldSize)
			if err != nil {
				return err
			}
		}
	}
	buf := make([]byte, 0, len(old)+len(data))
	buf = append(buf, old...)
	buf = append(buf, data...)
	return f.Write(filename, buf)
}

// Rename changes oldname's directory entry to newname, matching
// fs_rename; it refuses to overwrite an existing newname.
func (f *FS) Rename(oldname, newname string) error {
	fatOld, err := toFATName(oldname)
	if err != nil {
		return err
	}
	fatNew, err := toFATName(newname)
	if err != nil {
		return err
	}
	if _, _, found, err := f.findDirEntry(fatNew); err != nil {
		return err
	} else if found {
		return kerr.New("fat12.Rename", kerr.Exists)
	}
	lba, off, found, err := f.findDirEntry(fatOld)
	if err != nil {
		return err
	}
	if !found {
		return kerr.New("fat12.Rename", kerr.NotFound)
	}
	sector, err := f.disk.ReadSector(0, lba)
	if err != nil {
		return err
	}
	copy(sector[off:off+11], fatNew)
	return f.disk.WriteSector(0, lba, sector)
}

// FreeSpace sums every unallocated cluster's byte capacity, matching
// fs_free_space.
func (f *FS) FreeSpace() (uint32, error) {
	max := maxClusters(f.info)
	var free uint32
	for c := uint16(2); c < max; c++ {
		v, err := f.fatGet(c)
		if err != nil {
			return 0, err
		}
		if v == 0x000 {
			free++
		}
	}
	return free * uint32(f.info.SectorsPerCluster) * ata.SectorSize, nil
}
