package z80

import "testing"

func disasmOne(t *testing.T, data []byte) DisassembledLine {
	t.Helper()
	mem := make([]byte, 0x10000)
	copy(mem[0x4000:], data)
	lines := Disassemble(mem, 0x4000, 1)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	return lines[0]
}

func TestDisassembleBaseInstructions(t *testing.T) {
	cases := []struct {
		bytes []byte
		want  string
	}{
		{[]byte{0x00}, "NOP"},
		{[]byte{0x76}, "HALT"},
		{[]byte{0x47}, "LD B, A"},
		{[]byte{0x3E, 0x42}, "LD A, $42"},
		{[]byte{0x21, 0x34, 0x12}, "LD HL, $1234"},
		{[]byte{0xC3, 0x00, 0x50}, "JP $5000"},
		{[]byte{0x80}, "ADD A, B"},
	}
	for _, c := range cases {
		got := disasmOne(t, c.bytes)
		if got.Mnemonic != c.want {
			t.Errorf("decode(% X) = %q, want %q", c.bytes, got.Mnemonic, c.want)
		}
	}
}

func TestDisassembleJRTargetUsesPostFetchPC(t *testing.T) {
	got := disasmOne(t, []byte{0x18, 0xFE})
	if got.Mnemonic != "JR $4000" {
		t.Fatalf("JR mnemonic = %q, want %q", got.Mnemonic, "JR $4000")
	}
}

func TestDisassembleCBBit(t *testing.T) {
	got := disasmOne(t, []byte{0xCB, 0x47})
	if got.Mnemonic != "BIT 0, A" {
		t.Fatalf("CB mnemonic = %q, want %q", got.Mnemonic, "BIT 0, A")
	}
}

func TestDisassembleEDBlockOps(t *testing.T) {
	got := disasmOne(t, []byte{0xED, 0xB0})
	if got.Mnemonic != "LDIR" {
		t.Fatalf("ED mnemonic = %q, want %q", got.Mnemonic, "LDIR")
	}
}

func TestDisassembleIndexedDisplacement(t *testing.T) {
	got := disasmOne(t, []byte{0xDD, 0x36, 0x02, 0x99})
	if got.Mnemonic != "LD (IX+2), $99" {
		t.Fatalf("DD mnemonic = %q, want %q", got.Mnemonic, "LD (IX+2), $99")
	}
}

func TestDisassembleIndexedHalfRegister(t *testing.T) {
	got := disasmOne(t, []byte{0xDD, 0x26, 0xAB})
	if got.Mnemonic != "LD IXH, $ab" && got.Mnemonic != "LD IXH, $AB" {
		t.Fatalf("DD mnemonic = %q, want LD IXH, $AB", got.Mnemonic)
	}
}

func TestDisassembleDDCBBit(t *testing.T) {
	got := disasmOne(t, []byte{0xDD, 0xCB, 0x00, 0x46})
	if got.Mnemonic != "BIT 0, (IX+0)" {
		t.Fatalf("DDCB mnemonic = %q, want %q", got.Mnemonic, "BIT 0, (IX+0)")
	}
}
