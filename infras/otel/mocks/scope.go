package mocks

import "stayfinder/infras/otel"

type scopeImpl struct{}

func (s *scopeImpl) AddEvent(string) {}
func (s *scopeImpl) End() {}
func (s *scopeImpl) SetAttribute(string, any) {}
func (s *scopeImpl) SetAttributes(map[string]any) {}
func (s *scopeImpl) TraceError(error) {}
func (s *scopeImpl) TraceIfError(*error) {}
func (s *scopeImpl) TraceID() string { return "" }

func NewScope() otel.Scope {
	return &scopeImpl{}
}
