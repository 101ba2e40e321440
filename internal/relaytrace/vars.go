package relaytrace

var (
	Debug    = false // set to true for verbose debug output, logged at Info through Logger()
	PNG      = false // set to true to save ray diagram and histogram figures
	CSV      = false // set to true to save ray heights and histogram as CSV
	Parallel = false // set to true to trace the bundle with all CPU cores
	// Compile time checks to ensure that the sink interface is implemented by all outputs
	_ Sink = FigureSink{}
	_ Sink = CSVSink{}
	_ Sink = SinkFunc(nil)
)
