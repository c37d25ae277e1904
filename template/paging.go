package template

import "github.com/go-ldap/ldap/v3"

// PagingProcessor 基于 RFC 2696 简单分页控制的 SearchProcessor 实现
//
// 在请求发出前附加分页控制，在结果返回后回收服务端 cookie。
// 同一实例跨多次 Search 调用复用，直到 Done() 返回 true：
//
//	proc := template.NewPagingProcessor(500)
//	for !proc.Done() {
//	    if err := tpl.Search(ctx, base, filter, controls, handler, proc); err != nil {
//	        return err
//	    }
//	}
//
// 非并发安全，一个实例只服务一个执行单元。
type PagingProcessor struct {
	size    uint32
	control *ldap.ControlPaging
	done    bool
}

// NewPagingProcessor 创建分页处理器，size 为单页条目数
func NewPagingProcessor(size uint32) *PagingProcessor {
	return &PagingProcessor{size: size}
}

// PreProcess 向请求附加分页控制
func (p *PagingProcessor) PreProcess(req *ldap.SearchRequest) error {
	if p.control == nil {
		p.control = ldap.NewControlPaging(p.size)
	}
	req.Controls = append(req.Controls, p.control)
	return nil
}

// PostProcess 回收服务端返回的分页 cookie
//
// 无 cookie 表示分页结束。
func (p *PagingProcessor) PostProcess(res *ldap.SearchResult) error {
	p.done = true
	ctrl := ldap.FindControl(res.Controls, ldap.ControlTypePaging)
	paging, ok := ctrl.(*ldap.ControlPaging)
	if !ok || paging == nil {
		return nil
	}
	if len(paging.Cookie) > 0 {
		p.control.SetCookie(paging.Cookie)
		p.done = false
	}
	return nil
}

// Done 报告分页是否已经结束
//
// 尚未执行过任何搜索时返回 false。
func (p *PagingProcessor) Done() bool {
	return p.done
}
