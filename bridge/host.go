package bridge

import _ "embed"

//go:embed host.html
var hostPage []byte
