package browsher_test

import (
	"github.com/wippyai/browsher"
	"github.com/wippyai/browsher/runtime"
)

var _ browsher.Bridge = (*runtime.Bridge)(nil)
