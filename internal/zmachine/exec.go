package zmachine

import "fmt"

// opHandler executes one instruction given its resolved operand values.
// Store targets, branch data and literal text are consumed from the
// instruction stream by the handler itself.
type opHandler func(m *Machine, vals []uint16) error

// opInfo is per-opcode metadata shared by the executor's diagnostics and
// the disassembler: the mnemonic plus which trailing components follow
// the operands.
type opInfo struct {
	name   string
	store  bool
	branch bool
	text   bool
}

var info2OP = [32]opInfo{
	1:  {name: "je", branch: true},
	2:  {name: "jl", branch: true},
	3:  {name: "jg", branch: true},
	4:  {name: "dec_chk", branch: true},
	5:  {name: "inc_chk", branch: true},
	6:  {name: "jin", branch: true},
	7:  {name: "test", branch: true},
	8:  {name: "or", store: true},
	9:  {name: "and", store: true},
	10: {name: "test_attr", branch: true},
	11: {name: "set_attr"},
	12: {name: "clear_attr"},
	13: {name: "store"},
	14: {name: "insert_obj"},
	15: {name: "loadw", store: true},
	16: {name: "loadb", store: true},
	17: {name: "get_prop", store: true},
	18: {name: "get_prop_addr", store: true},
	19: {name: "get_next_prop", store: true},
	20: {name: "add", store: true},
	21: {name: "sub", store: true},
	22: {name: "mul", store: true},
	23: {name: "div", store: true},
	24: {name: "mod", store: true},
}

var info1OP = [16]opInfo{
	0:  {name: "jz", branch: true},
	1:  {name: "get_sibling", store: true, branch: true},
	2:  {name: "get_child", store: true, branch: true},
	3:  {name: "get_parent", store: true},
	4:  {name: "get_prop_len", store: true},
	5:  {name: "inc"},
	6:  {name: "dec"},
	7:  {name: "print_addr"},
	9:  {name: "remove_obj"},
	10: {name: "print_obj"},
	11: {name: "ret"},
	12: {name: "jump"},
	13: {name: "print_paddr"},
	14: {name: "load", store: true},
	15: {name: "not", store: true},
}

var info0OP = [16]opInfo{
	0:  {name: "rtrue"},
	1:  {name: "rfalse"},
	2:  {name: "print", text: true},
	3:  {name: "print_ret", text: true},
	4:  {name: "nop"},
	5:  {name: "save", branch: true},
	6:  {name: "restore", branch: true},
	7:  {name: "restart"},
	8:  {name: "ret_popped"},
	9:  {name: "pop"},
	10: {name: "quit"},
	11: {name: "new_line"},
	12: {name: "show_status"},
	13: {name: "verify", branch: true},
}

var infoVAR = [32]opInfo{
	0:  {name: "call", store: true},
	1:  {name: "storew"},
	2:  {name: "storeb"},
	3:  {name: "put_prop"},
	4:  {name: "sread"},
	5:  {name: "print_char"},
	6:  {name: "print_num"},
	7:  {name: "random", store: true},
	8:  {name: "push"},
	9:  {name: "pull"},
	10: {name: "split_window"},
	11: {name: "set_window"},
	19: {name: "output_stream"},
	20: {name: "input_stream"},
	21: {name: "sound_effect"},
}

var ops2OP = [32]opHandler{
	1:  op2JE,
	2:  op2JL,
	3:  op2JG,
	4:  op2DecChk,
	5:  op2IncChk,
	6:  op2Jin,
	7:  op2Test,
	8:  op2Or,
	9:  op2And,
	10: op2TestAttr,
	11: op2SetAttr,
	12: op2ClearAttr,
	13: op2Store,
	14: op2InsertObj,
	15: op2LoadW,
	16: op2LoadB,
	17: op2GetProp,
	18: op2GetPropAddr,
	19: op2GetNextProp,
	20: op2Add,
	21: op2Sub,
	22: op2Mul,
	23: op2Div,
	24: op2Mod,
}

var ops1OP = [16]opHandler{
	0:  op1JZ,
	1:  op1GetSibling,
	2:  op1GetChild,
	3:  op1GetParent,
	4:  op1GetPropLen,
	5:  op1Inc,
	6:  op1Dec,
	7:  op1PrintAddr,
	9:  op1RemoveObj,
	10: op1PrintObj,
	11: op1Ret,
	12: op1Jump,
	13: op1PrintPAddr,
	14: op1Load,
	15: op1Not,
}

var ops0OP = [16]opHandler{
	0:  op0RTrue,
	1:  op0RFalse,
	2:  op0Print,
	3:  op0PrintRet,
	4:  op0Nop,
	5:  op0Save,
	6:  op0Restore,
	7:  op0Restart,
	8:  op0RetPopped,
	9:  op0Pop,
	10: op0Quit,
	11: op0NewLine,
	12: op0ShowStatus,
	13: op0Verify,
}

var opsVAR = [32]opHandler{
	0:  opVCall,
	1:  opVStoreW,
	2:  opVStoreB,
	3:  opVPutProp,
	4:  opVSread,
	5:  opVPrintChar,
	6:  opVPrintNum,
	7:  opVRandom,
	8:  opVPush,
	9:  opVPull,
	10: opVSplitWindow,
	11: opVSetWindow,
	19: opVNopStream,
	20: opVNopStream,
	21: opVNopSound,
}

func lookupHandler(in instruction) opHandler {
	switch in.count {
	case count2OP:
		return ops2OP[in.num]
	case count1OP:
		return ops1OP[in.num]
	case count0OP:
		return ops0OP[in.num]
	default:
		return opsVAR[in.num]
	}
}

func lookupInfo(in instruction) opInfo {
	switch in.count {
	case count2OP:
		return info2OP[in.num]
	case count1OP:
		return info1OP[in.num]
	case count0OP:
		return info0OP[in.num]
	default:
		return infoVAR[in.num]
	}
}

func opName(in instruction) string {
	if info := lookupInfo(in); info.name != "" {
		return info.name
	}
	switch in.count {
	case count0OP:
		return fmt.Sprintf("0op:%d", in.num)
	case count1OP:
		return fmt.Sprintf("1op:%d", in.num)
	case count2OP:
		return fmt.Sprintf("2op:%d", in.num)
	default:
		return fmt.Sprintf("var:%d", in.num)
	}
}

// need guards handlers against truncated operand lists from corrupt
// instruction streams.
func need(vals []uint16, n int) error {
	if len(vals) < n {
		return fmt.Errorf("%w: expected %d operands, got %d", ErrIllegalOpcode, n, len(vals))
	}
	return nil
}
