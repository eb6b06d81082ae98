package importer

// ImportBatch is an ordered, size-bounded group of validated records
// submitted in one request.
type ImportBatch struct {
	Seq     int // 0-based position in submission order
	Records []ValidatedSensorRecord
}

// MakeBatches partitions records into ceil(len/size) batches of at most
// size records, preserving input order within and across batches. The
// result is deterministic for a given input and size, so retries and
// fixtures are reproducible.
func MakeBatches(records []ValidatedSensorRecord, size int) []ImportBatch {
	if size <= 0 || len(records) == 0 {
		return nil
	}
	batches := make([]ImportBatch, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, ImportBatch{
			Seq:     len(batches),
			Records: records[start:end],
		})
	}
	return batches
}
