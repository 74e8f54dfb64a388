package attendance

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrMissingEvidence     = errors.New("bukti foto/dokumen wajib diunggah untuk status Sakit atau Izin")
	ErrDuplicateSubmission = errors.New("siswa sudah melakukan presensi hari ini")
	ErrInvalidStatus       = errors.New("status presensi tidak valid")
)

// OutOfRangeError rejects a Present submission made outside the geofence.
type OutOfRangeError struct {
	Distance float64
	Radius   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("presensi gagal: berada %dm dari sekolah, maksimal radius %dm",
		int(math.Round(e.Distance)), int(math.Round(e.Radius)))
}

// PositionUnavailableError wraps a failure of the position provider.
type PositionUnavailableError struct {
	Err error
}

func (e *PositionUnavailableError) Error() string {
	if e.Err == nil {
		return "lokasi tidak tersedia"
	}
	return "lokasi tidak tersedia: " + e.Err.Error()
}

func (e *PositionUnavailableError) Unwrap() error {
	return e.Err
}
