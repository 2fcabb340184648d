package fpdb

import "testing"

func TestPackUnpackRoundTrip(t *testing.T) {
	cases := []struct {
		hash uint64
		t    uint32
	}{
		{0, 0},
		{1, 1},
		{0xFFFFFFFFFFFF, 0xFFFF},
		{12345, 6789},
	}
	for _, c := range cases {
		packed := Pack(c.hash, c.t)
		hash, timeIndex := Unpack(packed)
		if hash != c.hash || timeIndex != c.t {
			t.Fatalf("Pack/Unpack round trip failed for hash=%d t=%d: got hash=%d t=%d", c.hash, c.t, hash, timeIndex)
		}
	}
}

func TestFindReturnsEntriesWithinRange(t *testing.T) {
	db := New()
	entries := []uint64{
		Pack(100, 1),
		Pack(100, 2),
		Pack(101, 3),
		Pack(105, 4),
		Pack(200, 5),
	}
	db.RegisterAudio(AudioReference{AudioID: 7, Fingerprints: entries})

	out := make([]uint64, 10)
	n := db.Find(99, 102, out)

	if n != 3 {
		t.Fatalf("expected 3 results in range [99,102], got %d", n)
	}
	for i := 0; i < n; i++ {
		audioID := uint32(out[i])
		if audioID != 7 {
			t.Fatalf("expected audio id 7, got %d", audioID)
		}
	}
}

func TestFindRespectsResultCap(t *testing.T) {
	db := New()
	var entries []uint64
	for i := 0; i < 20; i++ {
		entries = append(entries, Pack(50, uint32(i)))
	}
	db.RegisterAudio(AudioReference{AudioID: 1, Fingerprints: entries})

	out := make([]uint64, 5)
	n := db.Find(50, 50, out)
	if n != 5 {
		t.Fatalf("expected Find to cap at len(out)=5, got %d", n)
	}
}

func TestFindSingle(t *testing.T) {
	db := New()
	db.RegisterAudio(AudioReference{AudioID: 1, Fingerprints: []uint64{Pack(10, 0), Pack(20, 0)}})

	if !db.FindSingle(15, 25) {
		t.Fatal("expected FindSingle to find hash 20 in range [15,25]")
	}
	if db.FindSingle(30, 40) {
		t.Fatal("expected FindSingle to find nothing in range [30,40]")
	}
}

func TestDeleteAudio(t *testing.T) {
	db := New()
	db.RegisterAudio(AudioReference{AudioID: 1, Fingerprints: []uint64{Pack(10, 0)}})
	db.RegisterAudio(AudioReference{AudioID: 2, Fingerprints: []uint64{Pack(10, 0)}})

	db.DeleteAudio(1)

	if db.AudioCount() != 1 {
		t.Fatalf("expected 1 audio item after delete, got %d", db.AudioCount())
	}

	out := make([]uint64, 10)
	n := db.Find(10, 10, out)
	for i := 0; i < n; i++ {
		if uint32(out[i]) == 1 {
			t.Fatal("deleted audio id 1 should not appear in results")
		}
	}
}

func TestAudioCountAndTotalFingerprints(t *testing.T) {
	db := New()
	db.RegisterAudio(AudioReference{AudioID: 1, Fingerprints: []uint64{Pack(1, 0), Pack(2, 0)}})
	db.RegisterAudio(AudioReference{AudioID: 2, Fingerprints: []uint64{Pack(3, 0)}})

	if db.AudioCount() != 2 {
		t.Fatalf("AudioCount() = %d, want 2", db.AudioCount())
	}
	if db.TotalFingerprints() != 3 {
		t.Fatalf("TotalFingerprints() = %d, want 3", db.TotalFingerprints())
	}
}
