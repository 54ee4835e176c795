// Command dcore shows image files on e-paper, OLED and LCD panels attached
// to a single board computer.
//
// Each screen of the configuration names a display profile and a frame
// input. The profile selects the driver, the bus and the geometry; the frame
// input is a raster file that another program rewrites whenever it wants the
// screen to change. dcore reads the file at the frame rate of the profile and
// keeps the last good frame on the panel while the file is missing or only
// half written.
//
// # Configuration
//
//	screens:
//	  screen1: {name: waveshare_3.5_clone, default_input: pwn}
//	  status:  {name: oled_ssd1322_256x64, default_input: stats}
//	frame_inputs:
//	  pwn:   {path: /var/tmp/pwnagotchi/pwnagotchi.png}
//	  stats: {path: /run/stats.png}
//
// Extra profiles can be merged over the builtin catalog with --profiles:
//
//	my_tft:
//	  driver: lcd
//	  model: st7789
//	  width: 240
//	  height: 240
//	  interface: spi
//	  spi: {port: 0, device: 0, speed_hz: 40000000}
//	  pins: {dc: 25, reset: 27, backlight: 24}
//	  fps: 30
//
// Run "dcore profiles" for the builtin keys.
//
// # Hardware Connection
//
// SPI panels on a Raspberry Pi:
//
//	Display    Raspberry Pi
//	GND        GND
//	VCC        3.3V
//	SCL/CLK    GPIO11 (SPI0 CLK)
//	SDA/MOSI   GPIO10 (SPI0 MOSI)
//	DC         pins.dc
//	CS         GPIO8 (SPI0 CE0), GPIO7 (CE1) or GND
//	RES        pins.reset (optional)
//	BL         pins.backlight (LCD only, optional)
//
// I²C OLEDs use SDA (GPIO2) and SCL (GPIO3); the address defaults to 0x3C.
// Pins are given by BCM number. Screens on the same SPI port share its lock,
// whatever their chip select.
//
// # Usage
//
//	dcore run --config /etc/dcore/config.yaml
//	dcore run --round-robin --metrics-addr :9100
//	dcore clear status
//	dcore show splash.png screen1 --once
//	dcore pattern status --pattern bars
//
// "dcore" without a subcommand is "dcore run". Logs go to stderr and, with
// --log-file, are appended to a file as well. With --debug errors are
// printed with the stack of their origin.
package main
