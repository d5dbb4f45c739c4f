// ops_base.go - base (unprefixed) dispatch table
//
// The base opcode space decomposes cleanly into an X,Y,Z bit field
// (op = XXYYYZZZ), the standard way of describing the Z80 encoding. Rather
// than hand-naming 256 functions, initBaseOps walks every opcode once and
// assigns a closure that captures the decoded fields - generating the
// dispatch table from a loop rather than writing it out by hand.
//
// Every register/register-pair access goes through readReg8/writeReg8 and
// getRP/setRP, which are themselves prefix-aware (see cpu.go); that is
// what lets the *same* closures serve as the DD/FD dispatch target with no
// separate indexed table (see ops_prefix.go).
package z80

type aluOp byte

const (
	aluADD aluOp = iota
	aluADC
	aluSUB
	aluSBC
	aluAND
	aluXOR
	aluOR
	aluCP
)

func (c *CPU) aluApply(op aluOp, operand byte) {
	switch op {
	case aluADD:
		c.A, c.F = addFlags(c.A, operand, 0)
	case aluADC:
		c.A, c.F = addFlags(c.A, operand, boolFlag(c.flag(FlagC), 1))
	case aluSUB:
		c.A, c.F = subFlags(c.A, operand, 0)
	case aluSBC:
		c.A, c.F = subFlags(c.A, operand, boolFlag(c.flag(FlagC), 1))
	case aluAND:
		c.A &= operand
		c.F = andFlags(c.A)
	case aluXOR:
		c.A ^= operand
		c.F = orXorFlags(c.A)
	case aluOR:
		c.A |= operand
		c.F = orXorFlags(c.A)
	case aluCP:
		c.F = cpFlags(c.A, operand)
	}
}

func boolFlagCond(cond byte, f *Registers) bool {
	switch cond {
	case 0:
		return !f.flag(FlagZ)
	case 1:
		return f.flag(FlagZ)
	case 2:
		return !f.flag(FlagC)
	case 3:
		return f.flag(FlagC)
	case 4:
		return !f.flag(FlagPV)
	case 5:
		return f.flag(FlagPV)
	case 6:
		return !f.flag(FlagS)
	default:
		return f.flag(FlagS)
	}
}

// getRP/setRP resolve the 2-bit register-pair field (00=BC,01=DE,10=HL or
// the active index register,11=SP) used by LD rp,nn / INC rp / DEC rp /
// ADD HL,rp / LD SP,HL / JP (HL).
func (c *CPU) getRP(idx byte) uint16 {
	switch idx {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.hlValue()
	default:
		return c.SP
	}
}

func (c *CPU) setRP(idx byte, v uint16) {
	switch idx {
	case 0:
		c.SetBC(v)
	case 1:
		c.SetDE(v)
	case 2:
		c.setHLValue(v)
	default:
		c.SP = v
	}
}

// getRP2/setRP2 resolve the PUSH/POP register-pair field, which uses AF in
// place of SP.
func (c *CPU) getRP2(idx byte) uint16 {
	if idx == 3 {
		return c.AF()
	}
	return c.getRP(idx)
}

func (c *CPU) setRP2(idx byte, v uint16) {
	if idx == 3 {
		c.SetAF(v)
		return
	}
	c.setRP(idx, v)
}

func (c *CPU) initBaseOps() {
	for i := range c.baseOps {
		c.baseOps[i] = opUnimplemented
		c.baseCost[i] = 4
	}

	for op := 0; op < 256; op++ {
		b := byte(op)
		x := (b >> 6) & 3
		y := (b >> 3) & 7
		z := b & 7

		switch {
		case x == 0 && z == 0:
			c.assignX0Z0(b, y)
		case x == 0 && z == 1:
			c.assignX0Z1(b, y)
		case x == 0 && z == 2:
			c.assignX0Z2(b, y)
		case x == 0 && z == 3:
			c.assignX0Z3(b, y)
		case x == 0 && z == 4:
			c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.opINCReg(bus, y) }
			c.baseCost[b] = regOpCost(y, 4, 11)
		case x == 0 && z == 5:
			c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.opDECReg(bus, y) }
			c.baseCost[b] = regOpCost(y, 4, 11)
		case x == 0 && z == 6:
			c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.opLDRegImm(bus, y) }
			c.baseCost[b] = regOpCost(y, 7, 10)
		case x == 0 && z == 7:
			c.assignX0Z7(b, y)
		case x == 1:
			c.assignX1(b, y, z)
		case x == 2:
			c.assignX2(b, y, z)
		case x == 3:
			c.assignX3(b, y, z)
		}
	}
}

// regOpCost returns the documented cost for a register-field-shaped
// opcode: plain costs less than the (HL) form.
func regOpCost(reg byte, plain, viaHL int) int {
	if reg == 6 {
		return viaHL
	}
	return plain
}

func opUnimplemented(c *CPU, bus Bus) {
	// Undefined/unreachable base opcode: treated as a NOP, matching the
	// "ED-undefined is a documented NOP" convention extended defensively -
	// the base table is dense and every entry above is actually assigned,
	// so this only fires if that invariant is ever violated.
}

// --- x=0 z=0: NOP / EX AF,AF' / DJNZ / JR / JR cc ---

func (c *CPU) assignX0Z0(b, y byte) {
	switch y {
	case 0:
		c.baseOps[b] = func(cpu *CPU, bus Bus) {}
		c.baseCost[b] = 4
	case 1:
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.opEXAFAF() }
		c.baseCost[b] = 4
	case 2:
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.opDJNZ(bus) }
		c.baseCost[b] = 8 // +5 more when the branch is taken, charged in opDJNZ
	case 3:
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.opJR(bus) }
		c.baseCost[b] = 12
	default:
		cc := y - 4
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.opJRCond(bus, cc) }
		c.baseCost[b] = 7 // +5 more when taken, charged in opJRCond
	}
}

func (c *CPU) opEXAFAF() {
	c.A, c.A2 = c.A2, c.A
	c.F, c.F2 = c.F2, c.F
}

func (c *CPU) opDJNZ(bus Bus) {
	e := c.fetchSignedByte(bus)
	c.B--
	if c.B != 0 {
		c.PC = uint16(int32(c.PC) + int32(e))
		c.TStates += 5
	}
}

func (c *CPU) opJR(bus Bus) {
	e := c.fetchSignedByte(bus)
	c.PC = uint16(int32(c.PC) + int32(e))
}

func (c *CPU) opJRCond(bus Bus, cc byte) {
	e := c.fetchSignedByte(bus)
	if boolFlagCond(cc, &c.Registers) {
		c.PC = uint16(int32(c.PC) + int32(e))
		c.TStates += 5
	}
}

// --- x=0 z=1: LD rp,nn / ADD HL,rp ---

func (c *CPU) assignX0Z1(b, y byte) {
	if y&1 == 0 {
		rp := y >> 1
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.setRP(rp, cpu.fetchWord(bus)) }
		c.baseCost[b] = 10
	} else {
		rp := y >> 1
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.opADDHLRP(rp) }
		c.baseCost[b] = 11
	}
}

func (c *CPU) opADDHLRP(rp byte) {
	result, f := add16Flags(c.F, c.hlValue(), c.getRP(rp))
	c.setHLValue(result)
	c.F = f
}

// --- x=0 z=2: LD (BC)/(DE),A and (nn),HL / LD A,(BC)/(DE) and HL,(nn) ---

func (c *CPU) assignX0Z2(b, y byte) {
	switch y {
	case 0:
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.writeMem(bus, cpu.BC(), cpu.A) }
		c.baseCost[b] = 7
	case 1:
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.A = cpu.readMem(bus, cpu.BC()) }
		c.baseCost[b] = 7
	case 2:
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.writeMem(bus, cpu.DE(), cpu.A) }
		c.baseCost[b] = 7
	case 3:
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.A = cpu.readMem(bus, cpu.DE()) }
		c.baseCost[b] = 7
	case 4:
		c.baseOps[b] = func(cpu *CPU, bus Bus) {
			addr := cpu.fetchWord(bus)
			v := cpu.hlValue()
			cpu.writeMem(bus, addr, byte(v))
			cpu.writeMem(bus, addr+1, byte(v>>8))
		}
		c.baseCost[b] = 16
	case 5:
		c.baseOps[b] = func(cpu *CPU, bus Bus) {
			addr := cpu.fetchWord(bus)
			lo := cpu.readMem(bus, addr)
			hi := cpu.readMem(bus, addr+1)
			cpu.setHLValue(uint16(hi)<<8 | uint16(lo))
		}
		c.baseCost[b] = 16
	case 6:
		c.baseOps[b] = func(cpu *CPU, bus Bus) {
			addr := cpu.fetchWord(bus)
			cpu.writeMem(bus, addr, cpu.A)
		}
		c.baseCost[b] = 13
	default:
		c.baseOps[b] = func(cpu *CPU, bus Bus) {
			addr := cpu.fetchWord(bus)
			cpu.A = cpu.readMem(bus, addr)
		}
		c.baseCost[b] = 13
	}
}

// --- x=0 z=3: INC rp / DEC rp ---

func (c *CPU) assignX0Z3(b, y byte) {
	rp := y >> 1
	if y&1 == 0 {
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.setRP(rp, cpu.getRP(rp)+1) }
	} else {
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.setRP(rp, cpu.getRP(rp)-1) }
	}
	c.baseCost[b] = 6
}

// --- x=0 z=4/5 handled inline above (INC/DEC r) ---

func (c *CPU) opINCReg(bus Bus, reg byte) {
	v := c.readReg8(bus, reg)
	result := v + 1
	c.writeReg8(bus, reg, result)
	c.F = c.F&FlagC | szyxFlags(result)
	if v&0xF == 0xF {
		c.F |= FlagH
	}
	if v == 0x7F {
		c.F |= FlagPV
	}
}

func (c *CPU) opDECReg(bus Bus, reg byte) {
	v := c.readReg8(bus, reg)
	result := v - 1
	c.writeReg8(bus, reg, result)
	c.F = c.F&FlagC | szyxFlags(result) | FlagN
	if v&0xF == 0 {
		c.F |= FlagH
	}
	if v == 0x80 {
		c.F |= FlagPV
	}
}

func (c *CPU) opLDRegImm(bus Bus, reg byte) {
	if reg == 6 {
		addr := c.memAddr(bus)
		c.writeMem(bus, addr, c.fetchByte(bus))
		return
	}
	c.writeReg8(bus, reg, c.fetchByte(bus))
}

// --- x=0 z=7: RLCA/RRCA/RLA/RRA/DAA/CPL/SCF/CCF ---

func (c *CPU) assignX0Z7(b, y byte) {
	fns := [8]func(*CPU){
		(*CPU).opRLCA, (*CPU).opRRCA, (*CPU).opRLA, (*CPU).opRRA,
		(*CPU).opDAA, (*CPU).opCPL, (*CPU).opSCF, (*CPU).opCCF,
	}
	fn := fns[y]
	c.baseOps[b] = func(cpu *CPU, bus Bus) { fn(cpu) }
	c.baseCost[b] = 4
}

func (c *CPU) opRLCA() {
	carry := c.A >> 7
	c.A = c.A<<1 | carry
	c.F = c.F&(FlagS|FlagZ|FlagPV) | c.A&(FlagY|FlagX) | carry
}

func (c *CPU) opRRCA() {
	carry := c.A & 1
	c.A = c.A>>1 | carry<<7
	c.F = c.F&(FlagS|FlagZ|FlagPV) | c.A&(FlagY|FlagX) | carry
}

func (c *CPU) opRLA() {
	oldCarry := boolFlag(c.flag(FlagC), 1)
	newCarry := c.A >> 7
	c.A = c.A<<1 | oldCarry
	c.F = c.F&(FlagS|FlagZ|FlagPV) | c.A&(FlagY|FlagX) | newCarry
}

func (c *CPU) opRRA() {
	oldCarry := boolFlag(c.flag(FlagC), 1)
	newCarry := c.A & 1
	c.A = c.A>>1 | oldCarry<<7
	c.F = c.F&(FlagS|FlagZ|FlagPV) | c.A&(FlagY|FlagX) | newCarry
}

func (c *CPU) opCPL() {
	c.A = ^c.A
	c.F = c.F&(FlagS|FlagZ|FlagPV|FlagC) | FlagH | FlagN | c.A&(FlagY|FlagX)
}

func (c *CPU) opSCF() {
	c.F = c.F&(FlagS|FlagZ|FlagPV) | FlagC | c.A&(FlagY|FlagX)
}

// opCCF complements the carry flag; H takes the old carry value (the
// undocumented rule), N is cleared, Y/X come from A.
func (c *CPU) opCCF() {
	oldCarry := c.flag(FlagC)
	c.F = c.F&(FlagS|FlagZ|FlagPV) | boolFlag(oldCarry, FlagH) | boolFlag(!oldCarry, FlagC) | c.A&(FlagY|FlagX)
}

// --- x=1: LD r,r' / HALT ---

func (c *CPU) assignX1(b, y, z byte) {
	if y == 6 && z == 6 {
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.Halted = true }
		c.baseCost[b] = 4
		return
	}
	dest, src := y, z
	c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.writeReg8(bus, dest, cpu.readReg8(bus, src)) }
	c.baseCost[b] = regOpCost(dest, regOpCost(src, 4, 7), 7)
}

// --- x=2: ALU[y] A,r[z] ---

func (c *CPU) assignX2(b, y, z byte) {
	op := aluOp(y)
	reg := z
	c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.aluApply(op, cpu.readReg8(bus, reg)) }
	c.baseCost[b] = regOpCost(reg, 4, 7)
}

// --- x=3: the irregular high quarter ---

func (c *CPU) assignX3(b, y, z byte) {
	switch z {
	case 0:
		cc := y
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.opRETCond(bus, cc) }
		c.baseCost[b] = 5
	case 1:
		c.assignX3Z1(b, y)
	case 2:
		cc := y
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.opJPCond(bus, cc) }
		c.baseCost[b] = 10
	case 3:
		c.assignX3Z3(b, y)
	case 4:
		cc := y
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.opCALLCond(bus, cc) }
		c.baseCost[b] = 10
	case 5:
		c.assignX3Z5(b, y)
	case 6:
		op := aluOp(y)
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.aluApply(op, cpu.fetchByte(bus)) }
		c.baseCost[b] = 7
	default:
		target := uint16(y) * 8
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.opRST(bus, target) }
		c.baseCost[b] = 11
	}
}

func (c *CPU) opRETCond(bus Bus, cc byte) {
	if boolFlagCond(cc, &c.Registers) {
		c.PC = c.popWord(bus)
		c.TStates += 6
	}
}

func (c *CPU) opJPCond(bus Bus, cc byte) {
	addr := c.fetchWord(bus)
	if boolFlagCond(cc, &c.Registers) {
		c.PC = addr
	}
}

func (c *CPU) opCALLCond(bus Bus, cc byte) {
	addr := c.fetchWord(bus)
	if boolFlagCond(cc, &c.Registers) {
		c.pushWord(bus, c.PC)
		c.PC = addr
		c.TStates += 7
	}
}

func (c *CPU) opRST(bus Bus, target uint16) {
	c.pushWord(bus, c.PC)
	c.PC = target
}

func (c *CPU) assignX3Z1(b, y byte) {
	if y&1 == 0 {
		rp2 := y >> 1
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.setRP2(rp2, cpu.popWord(bus)) }
		c.baseCost[b] = 10
		return
	}
	switch y {
	case 1:
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.PC = cpu.popWord(bus) }
		c.baseCost[b] = 10
	case 3:
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.opEXX() }
		c.baseCost[b] = 4
	case 5:
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.PC = cpu.hlValue() }
		c.baseCost[b] = 4
	default:
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.SP = cpu.hlValue() }
		c.baseCost[b] = 6
	}
}

func (c *CPU) opEXX() {
	c.B, c.B2 = c.B2, c.B
	c.C, c.C2 = c.C2, c.C
	c.D, c.D2 = c.D2, c.D
	c.E, c.E2 = c.E2, c.E
	c.H, c.H2 = c.H2, c.H
	c.L, c.L2 = c.L2, c.L
}

func (c *CPU) assignX3Z3(b, y byte) {
	switch y {
	case 0:
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.PC = cpu.fetchWord(bus) }
		c.baseCost[b] = 10
	case 1:
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.opCBPrefix(bus) }
		c.baseCost[b] = 4
	case 2:
		c.baseOps[b] = func(cpu *CPU, bus Bus) {
			n := cpu.fetchByte(bus)
			bus.Out(uint16(cpu.A)<<8|uint16(n), cpu.A)
		}
		c.baseCost[b] = 11
	case 3:
		c.baseOps[b] = func(cpu *CPU, bus Bus) {
			n := cpu.fetchByte(bus)
			cpu.A = bus.In(uint16(cpu.A)<<8 | uint16(n))
		}
		c.baseCost[b] = 11
	case 4:
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.opEXSPHL(bus) }
		c.baseCost[b] = 19
	case 5:
		c.baseOps[b] = func(cpu *CPU, bus Bus) {
			cpu.H, cpu.L, cpu.D, cpu.E = cpu.D, cpu.E, cpu.H, cpu.L
		}
		c.baseCost[b] = 4
	case 6:
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.IFF1, cpu.IFF2 = false, false }
		c.baseCost[b] = 4
	default:
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.EIPending = true }
		c.baseCost[b] = 4
	}
}

func (c *CPU) opEXSPHL(bus Bus) {
	addr := c.SP
	lo := c.readMem(bus, addr)
	hi := c.readMem(bus, addr+1)
	v := c.hlValue()
	c.writeMem(bus, addr, byte(v))
	c.writeMem(bus, addr+1, byte(v>>8))
	c.setHLValue(uint16(hi)<<8 | uint16(lo))
}

func (c *CPU) assignX3Z5(b, y byte) {
	if y&1 == 0 {
		rp2 := y >> 1
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.pushWord(bus, cpu.getRP2(rp2)) }
		c.baseCost[b] = 11
		return
	}
	switch y {
	case 1:
		c.baseOps[b] = func(cpu *CPU, bus Bus) {
			addr := cpu.fetchWord(bus)
			cpu.pushWord(bus, cpu.PC)
			cpu.PC = addr
		}
		c.baseCost[b] = 17
	case 3:
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.opDDPrefix(bus) }
		c.baseCost[b] = 4
	case 5:
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.opEDPrefix(bus) }
		c.baseCost[b] = 4
	default:
		c.baseOps[b] = func(cpu *CPU, bus Bus) { cpu.opFDPrefix(bus) }
		c.baseCost[b] = 4
	}
}

// opDAA implements the decimal-adjust algorithm: the correction applied
// depends on the current N/C/H flags and the value of A's nibbles,
// independent of how A got there.
func (c *CPU) opDAA() {
	a := c.A
	correction := byte(0)
	carry := c.flag(FlagC)
	halfCarry := c.flag(FlagH)
	subtract := c.flag(FlagN)

	if halfCarry || a&0xF > 9 {
		correction |= 0x06
	}
	if carry || a > 0x99 {
		correction |= 0x60
		carry = true
	}

	var result byte
	var newHalf bool
	if subtract {
		result = a - correction
		newHalf = halfCarry && a&0xF < 6
	} else {
		result = a + correction
		newHalf = a&0xF > 9
	}

	c.A = result
	c.F = szyxFlags(result) | boolFlag(parity(result), FlagPV) | boolFlag(subtract, FlagN) | boolFlag(carry, FlagC) | boolFlag(newHalf, FlagH)
}
