package zmachine

func op0RTrue(m *Machine, vals []uint16) error {
	return m.returnFromRoutine(1)
}

func op0RFalse(m *Machine, vals []uint16) error {
	return m.returnFromRoutine(0)
}

// print and print_ret carry their text inline after the opcode byte;
// execution resumes past the terminator word.
func op0Print(m *Machine, vals []uint16) error {
	s, next, err := m.dec.Decode(m.pc)
	if err != nil {
		return err
	}
	m.pc = next
	m.screen.Write(s)
	return nil
}

func op0PrintRet(m *Machine, vals []uint16) error {
	s, _, err := m.dec.Decode(m.pc)
	if err != nil {
		return err
	}
	m.screen.Write(s + "\n")
	return m.returnFromRoutine(1)
}

func op0Nop(m *Machine, vals []uint16) error { return nil }

// save captures the machine with the program counter parked on this
// instruction's branch data, so a later restore lands on the same
// branch and resolves it as a success. Failure to persist is reported
// through the branch, not as a machine fault.
func op0Save(m *Machine, vals []uint16) error {
	if m.saves == nil {
		m.log.Warning("save: no backend configured")
		return m.takeBranch(false)
	}
	snap, err := m.Capture()
	if err != nil {
		return err
	}
	if err := m.saves.Save(snap); err != nil {
		m.log.Errorf("save: %s", err.Error())
		return m.takeBranch(false)
	}
	return m.takeBranch(true)
}

// restore replaces the machine state wholesale on success; the restored
// program counter points at the originating save's branch data, which
// is then taken as true. On any failure the current state is untouched
// and this instruction's branch is taken as false.
func op0Restore(m *Machine, vals []uint16) error {
	if m.saves == nil {
		m.log.Warning("restore: no backend configured")
		return m.takeBranch(false)
	}
	snap, err := m.saves.Load()
	if err != nil {
		m.log.Errorf("restore: %s", err.Error())
		return m.takeBranch(false)
	}
	if err := m.RestoreSnapshot(snap); err != nil {
		m.log.Errorf("restore: %s", err.Error())
		return m.takeBranch(false)
	}
	return m.takeBranch(true)
}

func op0Restart(m *Machine, vals []uint16) error {
	return m.restart()
}

func op0RetPopped(m *Machine, vals []uint16) error {
	v, err := m.topFrame().pop()
	if err != nil {
		return err
	}
	return m.returnFromRoutine(v)
}

func op0Pop(m *Machine, vals []uint16) error {
	_, err := m.topFrame().pop()
	return err
}

func op0Quit(m *Machine, vals []uint16) error {
	m.state = Halted
	return nil
}

func op0NewLine(m *Machine, vals []uint16) error {
	m.screen.Write("\n")
	return nil
}

func op0ShowStatus(m *Machine, vals []uint16) error {
	return m.refreshStatus()
}

// verify checks the pristine image, not live memory, so a game that has
// already written to dynamic memory still verifies.
func op0Verify(m *Machine, vals []uint16) error {
	return m.takeBranch(m.pristine.VerifyChecksum())
}
