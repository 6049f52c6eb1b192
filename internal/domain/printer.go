package domain

// PrinterConfig holds the connection details of one configured printer
type PrinterConfig struct {
	Name       string `json:"name" yaml:"name"`
	Serial     string `json:"serial" yaml:"serial" validate:"required"`
	IP         string `json:"ip" yaml:"ip" validate:"required"`
	AccessCode string `json:"access_code" yaml:"access_code" validate:"required"`
}
