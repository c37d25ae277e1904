package config

import "github.com/ceyewan/ldapx/xerrors"

var (
	// ErrNotLoaded 在 Load 之前调用了读取方法
	ErrNotLoaded = xerrors.New("config: loader not loaded")

	// ErrFileNotFound FileRequired 开启时所有搜索路径下都没有配置文件
	ErrFileNotFound = xerrors.New("config: file not found")
)
