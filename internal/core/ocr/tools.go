package ocr

import "os/exec"

// ToolStatus reports whether one external binary resolves on PATH.
type ToolStatus struct {
	Name string
	Bin  string
	Path string
	Err  error
}

func (s ToolStatus) OK() bool { return s.Err == nil }

// CheckTools resolves pdftotext, pdftoppm and tesseract.
func CheckTools(cfg Config) []ToolStatus {
	return checkTools(cfg, exec.LookPath)
}

func checkTools(cfg Config, lookPath func(string) (string, error)) []ToolStatus {
	cfg = cfg.withDefaults()
	tools := []ToolStatus{
		{Name: "pdftotext", Bin: cfg.Pdftotext},
		{Name: "pdftoppm", Bin: cfg.Pdftoppm},
		{Name: "tesseract", Bin: cfg.Tesseract},
	}
	for i := range tools {
		tools[i].Path, tools[i].Err = lookPath(tools[i].Bin)
	}
	return tools
}
