package fat12

import (
	"testing"

	"github.com/rcornwell/pc32/internal/ata"
	"github.com/rcornwell/pc32/internal/ioport"
)

// newTestVolume builds a tiny but structurally valid FAT12 image: one
// reserved boot sector, a single-sector FAT, a 16-entry (one sector)
// root directory, and 8 data sectors of one cluster each.
func newTestVolume(t *testing.T) *FS {
	t.Helper()
	const dataSectors = 8
	image := make([]byte, (1+1+1+dataSectors)*ata.SectorSize)

	bs := image[:ata.SectorSize]
	putLE16(bs, 11, 512) // bytes per sector
	bs[13] = 1           // sectors per cluster
	putLE16(bs, 14, 1)   // reserved sectors
	bs[16] = 1           // num FATs
	putLE16(bs, 17, 16)  // root entries
	putLE16(bs, 22, 1)   // fat size (sectors)

	disk := ata.New(ioport.NewBus(), image)
	fs := New(disk)
	if err := fs.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return fs
}

func putLE16(b []byte, off int, v uint16) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
}

func TestWriteReadRoundTrip(t *testing.T) {
	fs := newTestVolume(t)
	want := []byte("hello, fat12")
	if err := fs.Write("HELLO.TXT", want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := fs.Read("HELLO.TXT", 4096)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("round trip got %q want %q", got, want)
	}
}

func TestReadRespectsMaxlen(t *testing.T) {
	fs := newTestVolume(t)
	fs.Write("A.TXT", []byte("0123456789"))
	got, err := fs.Read("A.TXT", 4)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "0123" {
		t.Errorf("got %q want %q", got, "0123")
	}
}

func TestReadMissingFile(t *testing.T) {
	fs := newTestVolume(t)
	if _, err := fs.Read("NOPE.TXT", 10); err == nil {
		t.Errorf("expected error reading missing file")
	}
}

func TestListShowsWrittenFiles(t *testing.T) {
	fs := newTestVolume(t)
	fs.Write("A.TXT", []byte("aa"))
	fs.Write("B.TXT", []byte("bbbb"))

	entries, err := fs.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List returned %d entries, want 2: %+v", len(entries), entries)
	}
	sizes := map[string]uint32{}
	for _, e := range entries {
		sizes[e.Name] = e.Size
	}
	if sizes["A.TXT"] != 2 || sizes["B.TXT"] != 4 {
		t.Errorf("unexpected sizes: %+v", sizes)
	}
}

func TestDeleteRemovesFileAndFreesClusters(t *testing.T) {
	fs := newTestVolume(t)
	fs.Write("A.TXT", []byte("aaaa"))
	before, _ := fs.FreeSpace()

	if err := fs.Delete("A.TXT"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	after, _ := fs.FreeSpace()
	if after <= before {
		t.Errorf("FreeSpace did not grow after delete: before=%d after=%d", before, after)
	}
	if _, err := fs.Read("A.TXT", 10); err == nil {
		t.Errorf("expected NotFound reading a deleted file")
	}
}

func TestRenameRejectsExistingTarget(t *testing.T) {
	fs := newTestVolume(t)
	fs.Write("A.TXT", []byte("a"))
	fs.Write("B.TXT", []byte("b"))

	if err := fs.Rename("A.TXT", "B.TXT"); err == nil {
		t.Errorf("expected error renaming onto an existing file")
	}
	if err := fs.Rename("A.TXT", "C.TXT"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := fs.Read("C.TXT", 10); err != nil {
		t.Errorf("renamed file not readable under new name: %v", err)
	}
}

func TestAppendGrowsFile(t *testing.T) {
	fs := newTestVolume(t)
	fs.Write("A.TXT", []byte("foo"))
	if err := fs.Append("A.TXT", []byte("bar")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	got, err := fs.Read("A.TXT", 64)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "foobar" {
		t.Errorf("got %q want %q", got, "foobar")
	}
}

func TestFATPackingRoundTrip(t *testing.T) {
	fs := newTestVolume(t)
	for _, cluster := range []uint16{2, 3, 4, 5} {
		for _, value := range []uint16{0x001, 0xABC, 0xFFF} {
			neighborLo, _ := fs.fatGet(cluster - 1)
			if err := fs.fatSet(cluster, value); err != nil {
				t.Fatalf("fatSet(%d, %#x): %v", cluster, value, err)
			}
			got, err := fs.fatGet(cluster)
			if err != nil {
				t.Fatalf("fatGet(%d): %v", cluster, err)
			}
			if got != value {
				t.Errorf("cluster %d: got %#x want %#x", cluster, got, value)
			}
			if after, _ := fs.fatGet(cluster - 1); after != neighborLo {
				t.Errorf("cluster %d: fatSet perturbed neighbor %d: %#x -> %#x",
					cluster, cluster-1, neighborLo, after)
			}
		}
		fs.fatSet(cluster, 0x000)
	}
}

func TestFATNameNormalisation(t *testing.T) {
	got, err := toFATName("a.b")
	if err != nil {
		t.Fatalf("toFATName: %v", err)
	}
	if got != "A       B  " {
		t.Errorf("toFATName(a.b) got %q want %q", got, "A       B  ")
	}
	if got, _ := toFATName("readme.txt"); got != "README  TXT" {
		t.Errorf("toFATName(readme.txt) got %q", got)
	}
	if _, err := toFATName(""); err == nil {
		t.Errorf("empty name should be rejected")
	}
	if _, err := toFATName("waytoolongname.txt"); err == nil {
		t.Errorf("9+ character stem should be rejected")
	}
}

func TestDirEntryRoundTrip(t *testing.T) {
	fs := newTestVolume(t)
	if err := fs.createDirEntry("README  TXT", 7, 123); err != nil {
		t.Fatalf("createDirEntry: %v", err)
	}
	lba, off, found, err := fs.findDirEntry("README  TXT")
	if err != nil || !found {
		t.Fatalf("findDirEntry: found=%v err=%v", found, err)
	}
	sector, err := fs.disk.ReadSector(0, lba)
	if err != nil {
		t.Fatalf("ReadSector: %v", err)
	}
	if cluster := le16(sector, off+26); cluster != 7 {
		t.Errorf("first cluster got %d want 7", cluster)
	}
	size := uint32(sector[off+28]) | uint32(sector[off+29])<<8 |
		uint32(sector[off+30])<<16 | uint32(sector[off+31])<<24
	if size != 123 {
		t.Errorf("size got %d want 123", size)
	}
	if sector[off+11] != attrArchive {
		t.Errorf("attribute got %#x want %#x", sector[off+11], attrArchive)
	}
}

func TestZeroLengthWriteVisibleToList(t *testing.T) {
	fs := newTestVolume(t)
	if err := fs.Write("X", nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	entries, err := fs.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "X" || entries[0].Size != 0 {
		t.Fatalf("List got %+v, want one zero-length entry named X", entries)
	}
	_, _, found, _ := fs.findDirEntry("X          ")
	if !found {
		t.Fatalf("directory entry for X not found")
	}
	got, err := fs.Read("X", 16)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("zero-length file read %d bytes", len(got))
	}
}

func TestClusterBoundaryAllocation(t *testing.T) {
	fs := newTestVolume(t)
	clusterBytes := uint32(fs.Info().SectorsPerCluster) * ata.SectorSize

	before, _ := fs.FreeSpace()
	fs.Write("ONE.BIN", make([]byte, clusterBytes))
	after, _ := fs.FreeSpace()
	if before-after != clusterBytes {
		t.Errorf("exactly one cluster of data should take one cluster: delta %d", before-after)
	}

	before = after
	fs.Write("TWO.BIN", make([]byte, clusterBytes+1))
	after, _ = fs.FreeSpace()
	if before-after != 2*clusterBytes {
		t.Errorf("one byte past a cluster should take two clusters: delta %d", before-after)
	}
}

func TestDeleteReusesFirstDataCluster(t *testing.T) {
	fs := newTestVolume(t)
	fs.Write("HELLO.TXT", []byte("hi"))
	if err := fs.Delete("HELLO.TXT"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := fs.Write("A.TXT", []byte("xyz")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	sector, err := fs.disk.ReadSector(0, fs.info.DataStart)
	if err != nil {
		t.Fatalf("ReadSector: %v", err)
	}
	want := []byte{'x', 'y', 'z', 0}
	for i, b := range want {
		if sector[i] != b {
			t.Errorf("first data cluster byte %d got %#x want %#x", i, sector[i], b)
		}
	}
}

// newMirroredVolume is newTestVolume with two FAT copies, for the
// FAT-mirroring invariant. It also returns the raw image so the two
// copies can be compared byte for byte.
func newMirroredVolume(t *testing.T) (*FS, []byte) {
	t.Helper()
	const dataSectors = 8
	image := make([]byte, (1+2+1+dataSectors)*ata.SectorSize)

	bs := image[:ata.SectorSize]
	putLE16(bs, 11, 512)
	bs[13] = 1
	putLE16(bs, 14, 1)
	bs[16] = 2
	putLE16(bs, 17, 16)
	putLE16(bs, 22, 1)

	disk := ata.New(ioport.NewBus(), image)
	fs := New(disk)
	if err := fs.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return fs, image
}

func TestFATCopiesIdenticalAfterMutation(t *testing.T) {
	fs, image := newMirroredVolume(t)
	fs.Write("B", []byte("0123456789ABCDEF"))
	fs.Write("C.TXT", make([]byte, 600))
	fs.Delete("B")

	fat1 := image[1*ata.SectorSize : 2*ata.SectorSize]
	fat2 := image[2*ata.SectorSize : 3*ata.SectorSize]
	for i := range fat1 {
		if fat1[i] != fat2[i] {
			t.Fatalf("FAT copies differ at byte %d: %#x vs %#x", i, fat1[i], fat2[i])
		}
	}
}

func TestListEmptyVolume(t *testing.T) {
	fs := newTestVolume(t)
	entries, err := fs.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("empty volume listed %d entries", len(entries))
	}
}

func TestFreeSpaceShrinksAsFilesGrow(t *testing.T) {
	fs := newTestVolume(t)
	before, _ := fs.FreeSpace()
	fs.Write("A.TXT", []byte("0123456789")) // one cluster (512 bytes/cluster)
	after, _ := fs.FreeSpace()
	if after != before-uint32(fs.Info().SectorsPerCluster)*ata.SectorSize {
		t.Errorf("FreeSpace got %d want %d", after, before-uint32(fs.Info().SectorsPerCluster)*ata.SectorSize)
	}
}
