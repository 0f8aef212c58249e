package server

// indexHTML is the browser side of the race: it draws what the server tells it
// to, speaks utterances and reports each one back, and forwards clicks, keys
// and recognized speech.
const indexHTML = `<!doctype html>
<html lang="{{LANG}}">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Corrida Cósmica</title>
  <style>
    :root{ --bg:#070a14; --panel:#0e1424; --edge:#1e2940; --text:#e5e7eb; --muted:#94a3b8; --star:#fbbf24; --human:#38bdf8; --cpu:#f472b6; }
    *{box-sizing:border-box} html,body{height:100%}
    body{margin:0; color:var(--text); font-family:ui-sans-serif, system-ui, -apple-system, Segoe UI, Roboto, Arial; background: radial-gradient(1000px 500px at 20% -10%, rgba(56,189,248,.12), transparent 60%), radial-gradient(800px 400px at 110% 10%, rgba(244,114,182,.1), transparent 60%), var(--bg);}
    header{display:flex; justify-content:space-between; align-items:center; padding:14px 20px; border-bottom:1px solid var(--edge)}
    header h1{margin:0; font-size:20px; letter-spacing:.08em}
    .pill{padding:4px 10px; border-radius:999px; border:1px solid var(--edge); color:var(--muted); font-size:12px}
    main{max-width:980px; margin:0 auto; padding:18px; display:grid; gap:16px}
    #board{display:grid; grid-template-columns:repeat(10, 1fr); gap:6px}
    .cell{position:relative; aspect-ratio:1; border-radius:10px; background:var(--panel); border:1px solid var(--edge); display:flex; align-items:flex-start; justify-content:flex-start; padding:4px; font-size:11px; color:var(--muted)}
    .cell.start{border-color:var(--human)} .cell.finish{border-color:var(--star); box-shadow:0 0 12px rgba(251,191,36,.35)}
    .cell .label{position:absolute; bottom:4px; right:6px; font-size:10px; color:var(--star)}
    .piece{position:absolute; width:38%; height:38%; border-radius:50%; transition:all .35s ease}
    .piece.human{background:var(--human); left:12%; bottom:12%} .piece.computer{background:var(--cpu); right:12%; top:12%}
    #controls{display:flex; align-items:center; gap:16px; flex-wrap:wrap}
    #die{width:64px; height:64px; border-radius:12px; background:#111827; border:1px solid #374151; display:flex; align-items:center; justify-content:center; font-size:30px; font-weight:800}
    #die.roll{animation:roll .6s ease}
    @keyframes roll { 0%{ transform: rotate(0) scale(.9) } 50%{ transform: rotate(20deg) scale(1.08) } 100%{ transform: rotate(0) scale(1) } }
    #trigger{cursor:pointer; padding:14px 22px; border-radius:12px; border:1px solid rgba(251,191,36,.5); background:linear-gradient(180deg,#fbbf24,#d97706); color:#0a0c10; font-weight:800; font-size:17px; min-width:220px}
    #trigger[disabled]{opacity:.45; cursor:not-allowed}
    #status{font-size:18px; min-height:1.4em}
    #notice{color:var(--muted); font-size:13px; min-height:1.2em}
    .legend{display:flex; gap:14px; color:var(--muted); font-size:13px} .dot{display:inline-block; width:10px; height:10px; border-radius:50%; margin-right:6px}
  </style>
</head>
<body>
  <header><h1>Corrida Cósmica</h1><span class="pill">v{{BUILD_VERSION}}</span></header>
  <main>
    <div class="legend" id="legend"></div>
    <div id="board"></div>
    <div id="controls">
      <div id="die">–</div>
      <button id="trigger" disabled>…</button>
      <div>
        <div id="status"></div>
        <div id="notice"></div>
      </div>
    </div>
  </main>
  <script>
    const synth = window.speechSynthesis || null;
    const Recognition = window.SpeechRecognition || window.webkitSpeechRecognition || null;
    let ws = null, hello = null, cells = [], recog = null, speaking = null;

    function send(type, data){ ws && ws.readyState===1 && ws.send(JSON.stringify({type, data})); }
    function $(id){ return document.getElementById(id); }

    function renderBoard(b){
      const board = $('board'); board.innerHTML=''; cells=[];
      for(let i=1;i<=b.size;i++){
        const c=document.createElement('div'); c.className='cell'; c.textContent=i;
        if(i===1){ c.classList.add('start'); const l=document.createElement('span'); l.className='label'; l.textContent=b.start_label; c.appendChild(l); }
        if(i===b.size){ c.classList.add('finish'); const l=document.createElement('span'); l.className='label'; l.textContent=b.finish_label; c.appendChild(l); }
        board.appendChild(c); cells.push(c);
      }
      document.querySelectorAll('.piece').forEach(p=>p.remove());
    }
    function positionPiece(p){
      let el=document.querySelector('.piece.'+p.player);
      if(p.square<=0){ if(el) el.remove(); return; }
      if(!el){ el=document.createElement('div'); el.className='piece '+p.player; }
      const cell=cells[Math.min(p.square, cells.length)-1];
      if(cell) cell.appendChild(el);
    }
    function showDie(d){ const el=$('die'); el.classList.remove('roll'); void el.offsetWidth; el.textContent=d.value; el.classList.add('roll'); }
    function setTrigger(t){ const b=$('trigger'); b.textContent=t.label; b.disabled=!t.enabled; b.dataset.mode=t.mode; }

    function speak(u){
      if(!synth){ send('spoken', {id:u.id, ok:false, error:'unavailable'}); return; }
      const utt=new SpeechSynthesisUtterance(u.text);
      utt.lang=u.lang; utt.rate=u.rate;
      let done=false;
      const finish=(ok, err)=>{ if(done) return; done=true; speaking=null; send('spoken', {id:u.id, ok, error:err||''}); };
      utt.onend=()=>finish(true);
      utt.onerror=(e)=>finish(false, e.error||'error');
      speaking={id:u.id, finish};
      synth.speak(utt);
    }
    function hush(){
      if(speaking){ const s=speaking; speaking=null; s.finish(false, 'canceled'); }
      if(synth) synth.cancel();
    }
    function listen(l){
      if(!Recognition) return;
      if(recog){ try{ recog.abort(); }catch(e){} }
      recog=new Recognition(); recog.lang=l.lang; recog.interimResults=false; recog.maxAlternatives=1;
      recog.onresult=(e)=>{ const t=(e.results[0]&&e.results[0][0]&&e.results[0][0].transcript)||''; send('voice', {transcript:t}); };
      recog.onerror=(e)=>send('voice_error', {error:e.error||'unknown'});
      try{ recog.start(); }catch(e){ send('voice_error', {error:'start-failed'}); }
    }

    function connect(){
      const proto = location.protocol==='https:' ? 'wss' : 'ws';
      ws=new WebSocket(proto+'://'+location.host+'/ws');
      ws.onopen=()=>{ send('hello', {speech:!!synth, recognition:!!Recognition}); };
      ws.onmessage=(ev)=>{
        const msg=JSON.parse(ev.data), d=msg.data||{};
        switch(msg.type){
          case 'hello': hello=d; if(Recognition) $('trigger').title=d.voice_words.join(', '); $('legend').innerHTML='<span><span class="dot" style="background:var(--human)"></span>'+d.pieces.human+'</span><span><span class="dot" style="background:var(--cpu)"></span>'+d.pieces.computer+'</span>'; break;
          case 'board': renderBoard(d); break;
          case 'piece': positionPiece(d); break;
          case 'die': showDie(d); break;
          case 'status': $('status').textContent=d.text; break;
          case 'notice': $('notice').textContent=d.text; break;
          case 'trigger': setTrigger(d); break;
          case 'speak': speak(d); break;
          case 'hush': hush(); break;
          case 'listen': listen(d); break;
        }
      };
      ws.onclose=()=>{ hush(); $('trigger').disabled=true; if(hello) $('status').textContent=hello.connection_lost; setTimeout(connect, 2000); };
    }

    $('trigger').addEventListener('click', ()=>send('click'));
    document.addEventListener('keydown', (e)=>{
      if(!hello || e.repeat) return;
      if(e.code===hello.roll_key || e.code===hello.voice_key || e.code===hello.restart_key){
        e.preventDefault();
        send('key', {code:e.code});
      }
    });
    connect();
  </script>
</body>
</html>
`
