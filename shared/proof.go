package shared

import (
	"bytes"
	"fmt"

	"github.com/spacemeshos/go-scale"
)

// Proof binds a nonce to the hash and difficulty it was solved for.
// Scale encoding is implemented by hand to reject difficulties above MaxDifficulty.
type Proof struct {
	Hash       Hash
	Difficulty uint
	Nonce      Nonce
}

func (p *Proof) EncodeScale(enc *scale.Encoder) (total int, err error) {
	if err := CheckDifficulty(p.Difficulty); err != nil {
		return 0, err
	}
	{
		n, err := scale.EncodeByteArray(enc, p.Hash[:])
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact16(enc, uint16(p.Difficulty))
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeByteArray(enc, p.Nonce[:])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (p *Proof) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		n, err := scale.DecodeByteArray(dec, p.Hash[:])
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		field, n, err := scale.DecodeCompact16(dec)
		if err != nil {
			return total, err
		}
		total += n
		if err := CheckDifficulty(uint(field)); err != nil {
			return total, err
		}
		p.Difficulty = uint(field)
	}
	{
		n, err := scale.DecodeByteArray(dec, p.Nonce[:])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func EncodeProof(p *Proof) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := p.EncodeScale(scale.NewEncoder(&buf)); err != nil {
		return nil, fmt.Errorf("encoding proof: %w", err)
	}
	return buf.Bytes(), nil
}

func DecodeProof(data []byte) (*Proof, error) {
	var p Proof
	if _, err := p.DecodeScale(scale.NewDecoder(bytes.NewReader(data))); err != nil {
		return nil, fmt.Errorf("decoding proof: %w", err)
	}
	return &p, nil
}
