package models

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/saralerp/books_backend/utils"
)

const sequenceSeedWidth = 4

// DocumentSequence is the per-company-per-prefix counter behind sequential
// document numbers. LastNumber is only ever bumped with an atomic
// increment-and-read so concurrent issuers cannot mint the same number.
type DocumentSequence struct {
	ID         int    `gorm:"primary_key" json:"id"`
	CompanyId  string `gorm:"uniqueIndex:idx_document_sequence;type:char(36);not null" json:"company_id"`
	Prefix     string `gorm:"uniqueIndex:idx_document_sequence;size:50;not null" json:"prefix"`
	LastNumber int64  `gorm:"not null;default:0" json:"last_number"`
	Width      int    `gorm:"not null;default:4" json:"width"`
}

// NextDocumentNumber derives the next number from the latest existing one for
// the prefix ("latest" by creation order, not lexical order). Pure.
//
//   - no prior number: seed at <prefix>0001
//   - trailing digits: increment, re-pad to the previous suffix width
//   - unparseable suffix: append a literal "-1" rather than failing
func NextDocumentNumber(prefix string, latest string) string {
	if latest == "" {
		return prefix + padNumber(1, sequenceSeedWidth)
	}

	suffix := strings.TrimPrefix(latest, prefix)
	digits := trailingDigits(suffix)
	if digits == "" {
		return latest + "-1"
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return latest + "-1"
	}
	head := latest[:len(latest)-len(digits)]
	return head + padNumber(n+1, len(digits))
}

func trailingDigits(s string) string {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	return s[i:]
}

func padNumber(n int64, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}

// NextSequencedNumber issues the next number for the prefix through the
// counter row. The read-latest-plus-one derivation alone is racy under
// concurrent issuance, so this path serializes per company with a redis lock
// and bumps the counter with an atomic increment; the unique constraint on
// the issued document number remains the backstop when redis is absent.
//
// Must be called on the handle of the transaction scope that will persist the
// numbered document, so a rolled-back document does not burn visible numbers
// outside its own gap.
func NextSequencedNumber(tx *gorm.DB, ctx context.Context, companyId string, prefix string, latest string) (string, error) {
	release, err := utils.CompanyLock(ctx, companyId, "docSeq:"+prefix)
	if err != nil {
		return "", err
	}
	defer release()

	var seq DocumentSequence
	err = tx.WithContext(ctx).
		Where("company_id = ? AND prefix = ?", companyId, prefix).
		First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// First issuance for this prefix: seed from the latest existing
		// number so adopted data keeps its sequence.
		seed := NextDocumentNumber(prefix, latest)
		digits := trailingDigits(seed)
		n, perr := strconv.ParseInt(digits, 10, 64)
		if perr != nil {
			// "-1" fallback shape; counter bookkeeping is meaningless here.
			return seed, nil
		}
		seq = DocumentSequence{
			CompanyId:  companyId,
			Prefix:     prefix,
			LastNumber: n,
			Width:      len(digits),
		}
		cerr := tx.WithContext(ctx).Create(&seq).Error
		if cerr == nil {
			return seed, nil
		}
		if !utils.IsDuplicateKey(cerr) {
			return "", &utils.StorageFailure{Op: "NextSequencedNumber", Err: cerr}
		}
		// Lost the first-issuance race to a concurrent issuer; re-read the
		// winner's row and take the increment path against it.
		if rerr := tx.WithContext(ctx).
			Where("company_id = ? AND prefix = ?", companyId, prefix).
			First(&seq).Error; rerr != nil {
			return "", &utils.StorageFailure{Op: "NextSequencedNumber", Err: rerr}
		}
	} else if err != nil {
		return "", &utils.StorageFailure{Op: "NextSequencedNumber", Err: err}
	}

	if err := tx.WithContext(ctx).Exec(
		"UPDATE document_sequences SET last_number = last_number + 1 WHERE id = ?", seq.ID).Error; err != nil {
		return "", &utils.StorageFailure{Op: "NextSequencedNumber", Err: err}
	}
	var lastNumber int64
	if err := tx.WithContext(ctx).Model(&DocumentSequence{}).
		Where("id = ?", seq.ID).Select("last_number").Scan(&lastNumber).Error; err != nil {
		return "", &utils.StorageFailure{Op: "NextSequencedNumber", Err: err}
	}
	return prefix + padNumber(lastNumber, seq.Width), nil
}
