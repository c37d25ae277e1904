package connector

import "github.com/ceyewan/ldapx/xerrors"

// Sentinel Errors - 连接器专用的哨兵错误
var (
	ErrConfigNil     = xerrors.New("connector: config is nil")
	ErrConfig        = xerrors.New("connector: invalid config")
	ErrConnection    = xerrors.New("connector: connection failed")
	ErrClientNil     = xerrors.New("connector: client not initialized")
	ErrAlreadyClosed = xerrors.New("connector: already closed")
	ErrHealthCheck   = xerrors.New("connector: health check failed")
)
