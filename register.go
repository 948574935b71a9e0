package globalvar

import (
	"go.k6.io/k6/js/modules"

	"github.com/itcraft-cn/globalvar/globalvar"
)

// init registers the globalvar module with the k6 runtime.
func init() {
	modules.Register("k6/x/globalvar", globalvar.New())
}
