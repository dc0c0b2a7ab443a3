package hcaptcha

// InjectionScript is the page-side twin of the Interceptor. It must run
// before the widget library loads: it installs a settable slot for
// window.hcaptcha, and the first assignment wraps the library's render entry
// point. Every render call overwrites window.hcaptchaHandle with the latest
// widget's configuration, and function callbacks are re-registered under a
// window-level generated name so the token can be delivered with
// window[handle.callback](token).
const InjectionScript = `(function () {
	var lib;
	var wrapped = false;

	function wrapRender(instance) {
		var render = instance.render.bind(instance);
		instance.render = function (container, opts) {
			opts = opts || {};
			var callback = opts.callback;
			if (typeof callback === 'function') {
				var name = '` + CallbackPrefix + `' + Date.now();
				window[name] = callback;
				callback = name;
			}
			var forwarded = Object.assign({}, opts, { callback: callback });
			window.` + HandleGlobal + ` = {
				captchaType: '` + CaptchaType + `',
				widgetId: 0,
				containerId: container,
				sitekey: forwarded.sitekey,
				callback: callback
			};
			return render(container, forwarded);
		};
	}

	Object.defineProperty(window, 'hcaptcha', {
		configurable: true,
		get: function () { return lib; },
		set: function (value) {
			lib = value;
			if (!wrapped && value && typeof value.render === 'function') {
				wrapped = true;
				wrapRender(value);
			}
		}
	});
})();`
