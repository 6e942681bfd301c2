package service

import "github.com/minio/highwayhash"

var fingerprintKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// fingerprint hashes raw source bytes for change detection across
// re-ingestion runs.
func fingerprint(data []byte) (uint64, error) {
	h, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return 0, err
	}
	if _, err := h.Write(data); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
